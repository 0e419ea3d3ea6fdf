package payments

import razorpay "github.com/razorpay/razorpay-go"

type razorpayProvider struct {
	client *razorpay.Client
}

// NewRazorpayProvider wraps the Razorpay SDK behind the Provider seam.
func NewRazorpayProvider(keyID, keySecret string) Provider {
	return &razorpayProvider{client: razorpay.NewClient(keyID, keySecret)}
}

func (p *razorpayProvider) CreateOrder(data map[string]interface{}) (map[string]interface{}, error) {
	return p.client.Order.Create(data, nil)
}

func (p *razorpayProvider) RefundPayment(paymentID string, amount int, data map[string]interface{}) (map[string]interface{}, error) {
	return p.client.Payment.Refund(paymentID, amount, data, nil)
}

func (p *razorpayProvider) FetchPayment(paymentID string) (map[string]interface{}, error) {
	return p.client.Payment.Fetch(paymentID, nil, nil)
}
