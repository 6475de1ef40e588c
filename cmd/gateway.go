package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/feegateway/internal/paymentgateway"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Exercise provider adapters offline",
	Long:  `Build checkout descriptors and verify callback payloads with a provider adapter, without a database or server.`,
}

var (
	gwProvider   string
	gwMerchantID string
	gwSecretKey  string
	gwAccessCode string
	gwLive       bool
	gwEndpoint   string

	gwAmount     string
	gwOrderID    string
	gwPayerName  string
	gwPayerEmail string
	gwPayerPhone string
	gwReturnURL  string

	gwPayload map[string]string
)

var gatewayPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the outbound descriptor for a payment",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := gatewayAdapter()
		if err != nil {
			return err
		}

		amount, err := decimal.NewFromString(gwAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", gwAmount, err)
		}

		descriptor, err := adapter.Initiate(paymentgatewaytypes.PaymentRequest{
			Amount:     amount,
			OrderID:    gwOrderID,
			PayerName:  gwPayerName,
			PayerEmail: gwPayerEmail,
			PayerPhone: gwPayerPhone,
			ReturnURL:  gwReturnURL,
		})
		if err != nil {
			return err
		}
		return printJSON(descriptor)
	},
}

var gatewayVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a callback payload",
	Long:  `Verify a callback payload given as repeated --field key=value pairs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := gatewayAdapter()
		if err != nil {
			return err
		}

		result, err := adapter.Verify(paymentgatewaytypes.CallbackPayload(gwPayload))
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func gatewayAdapter() (paymentgateway.Adapter, error) {
	var opts []paymentgateway.FactoryOption
	if gwEndpoint != "" {
		opts = append(opts, paymentgateway.WithProviderEndpoint(paymentgatewaytypes.ParseProvider(gwProvider), gwEndpoint))
	}

	testMode := !gwLive
	return paymentgateway.NewFactory(opts...).Adapter(paymentgatewaytypes.GatewayConfig{
		Provider:   paymentgatewaytypes.ParseProvider(gwProvider),
		MerchantID: gwMerchantID,
		SecretKey:  gwSecretKey,
		AccessCode: gwAccessCode,
		TestMode:   &testMode,
	})
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{gatewayPreviewCmd, gatewayVerifyCmd} {
		c.Flags().StringVar(&gwProvider, "provider", "", "provider: icici, hdfc, sbi or axis")
		c.Flags().StringVar(&gwMerchantID, "merchant-id", "", "merchant id")
		c.Flags().StringVar(&gwSecretKey, "secret", "", "merchant secret or encryption key")
		c.Flags().StringVar(&gwAccessCode, "access-code", "", "access code (axis)")
		c.Flags().BoolVar(&gwLive, "live", false, "use the live adapter instead of simulation")
		c.Flags().StringVar(&gwEndpoint, "endpoint", "", "override the provider endpoint")
	}

	gatewayPreviewCmd.Flags().StringVar(&gwAmount, "amount", "", "amount in rupees, e.g. 1250.50")
	gatewayPreviewCmd.Flags().StringVar(&gwOrderID, "order-id", "", "order id")
	gatewayPreviewCmd.Flags().StringVar(&gwPayerName, "payer-name", "", "payer name")
	gatewayPreviewCmd.Flags().StringVar(&gwPayerEmail, "payer-email", "", "payer email")
	gatewayPreviewCmd.Flags().StringVar(&gwPayerPhone, "payer-phone", "", "payer phone")
	gatewayPreviewCmd.Flags().StringVar(&gwReturnURL, "return-url", "", "return url")
	_ = gatewayPreviewCmd.MarkFlagRequired("amount")
	_ = gatewayPreviewCmd.MarkFlagRequired("order-id")

	gatewayVerifyCmd.Flags().StringToStringVar(&gwPayload, "field", nil, "callback field as key=value, repeatable")

	gatewayCmd.AddCommand(gatewayPreviewCmd)
	gatewayCmd.AddCommand(gatewayVerifyCmd)
}
