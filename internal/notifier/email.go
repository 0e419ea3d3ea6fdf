package notifier

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/models"
)

// EmailNotifier sends transactional order mail through SES.
type EmailNotifier struct {
	client *ses.Client
	sender string
}

// NewEmailNotifier builds an SES-backed notifier from environment
// configuration. Returns an error when the sender address is missing so the
// caller can run without mail rather than fail sends later.
func NewEmailNotifier(ctx context.Context) (*EmailNotifier, error) {
	sender := global.GetEnvOrDefault("SES_SENDER_EMAIL", "")
	if sender == "" {
		return nil, fmt.Errorf("sender email address is not configured in environment variables")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(global.GetEnvOrDefault("AWS_REGION", "us-east-1")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			global.GetEnvOrDefault("AWS_ACCESS_KEY_ID", ""),
			global.GetEnvOrDefault("AWS_SECRET_ACCESS_KEY", ""),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return &EmailNotifier{
		client: ses.NewFromConfig(awsCfg),
		sender: sender,
	}, nil
}

// SendOrderConfirmation mails the order confirmation to the customer,
// registered or guest.
func (n *EmailNotifier) SendOrderConfirmation(ctx context.Context, email, name string, order *models.Order) error {
	if email == "" {
		return fmt.Errorf("recipient email address is empty")
	}

	total := strconv.FormatFloat(order.TotalPrice, 'f', 2, 64)
	subject := fmt.Sprintf("Order %s Confirmation - Thank You for Your Purchase!", order.OrderNumber)

	bodyHTML := fmt.Sprintf(`
        <html>
        <body>
            <p>Dear %s,</p>
            <p>Thank you for your order! Your order %s has been successfully placed.</p>
            <p><strong>Order Details:</strong></p>
            <ul>
                <li>Order Number: %s</li>
                <li>Total Amount: INR %s</li>
            </ul>
            <p>We'll send you another email when your order ships.</p>
            <p>Best regards,</p>
            <p>The Oakline Team</p>
        </body>
        </html>`, name, order.OrderNumber, order.OrderNumber, total)

	bodyText := fmt.Sprintf(
		"Dear %s,\n\nThank you for your order! Your order %s has been successfully placed.\n\n"+
			"Order Details:\nOrder Number: %s\nTotal Amount: INR %s\n\n"+
			"We'll send you another email when your order ships.\n\nBest regards,\nThe Oakline Team",
		name, order.OrderNumber, order.OrderNumber, total)

	input := &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyHTML),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(bodyText),
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
