package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/shopspring/decimal"
)

type sendEmailAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newSESClientFromConfig = func(cfg aws.Config, optFns ...func(*ses.Options)) sendEmailAPI {
		return ses.NewFromConfig(cfg, optFns...)
	}
)

var emailTmpl = template.Must(template.New("order").Parse(`<html>
<body>
<p>Dear {{.Name}},</p>
<p>{{.Headline}}</p>
<ul>
<li>Order ID: {{.OrderID}}</li>
<li>Product: {{.Product}} (size {{.Size}}) x {{.Quantity}}</li>
<li>Total: {{.Currency}} {{.Total}}</li>
<li>Status: {{.Status}}</li>
</ul>
<p>Best regards,<br>PrintPeak</p>
</body>
</html>`))

type emailData struct {
	Name     string
	Headline string
	OrderID  string
	Product  string
	Size     string
	Quantity int
	Currency string
	Total    string
	Status   models.OrderStatus
}

// SESNotifier e-mails the order owner through Amazon SES.
type SESNotifier struct {
	client   sendEmailAPI
	sender   string
	currency string
}

func NewSESNotifier(ctx context.Context, region, accessKey, secretKey, sender, currency string) (*SESNotifier, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return &SESNotifier{
		client:   newSESClientFromConfig(cfg),
		sender:   sender,
		currency: strings.ToUpper(currency),
	}, nil
}

func (n *SESNotifier) OrderPlaced(ctx context.Context, owner *models.User, o *models.Order) error {
	return n.send(ctx, owner, o,
		fmt.Sprintf("Order %s confirmation", o.ID),
		"Thank you for your order! It has been placed successfully.")
}

func (n *SESNotifier) OrderStatusChanged(ctx context.Context, owner *models.User, o *models.Order) error {
	return n.send(ctx, owner, o,
		fmt.Sprintf("Order %s is now %s", o.ID, o.Status),
		fmt.Sprintf("Your order status changed to %s.", o.Status))
}

func (n *SESNotifier) send(ctx context.Context, owner *models.User, o *models.Order, subject, headline string) error {
	if owner == nil || owner.Email == "" {
		return fmt.Errorf("order %s: recipient email address is empty", o.ID)
	}

	d := emailData{
		Name:     owner.Name,
		Headline: headline,
		OrderID:  o.ID,
		Size:     o.Size,
		Quantity: o.Quantity,
		Currency: n.currency,
		Total:    "0.00",
		Status:   o.Status,
	}
	if o.Product != nil {
		d.Product = o.Product.Name
		d.Total = o.Product.Price.Mul(decimal.NewFromInt(int64(o.Quantity))).StringFixed(2)
	}

	var html bytes.Buffer
	if err := emailTmpl.Execute(&html, d); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	text := fmt.Sprintf("Dear %s,\n\n%s\n\nOrder ID: %s\nProduct: %s (size %s) x %d\nTotal: %s %s\nStatus: %s\n\nBest regards,\nPrintPeak",
		d.Name, d.Headline, d.OrderID, d.Product, d.Size, d.Quantity, d.Currency, d.Total, d.Status)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.sender),
		Destination: &types.Destination{ToAddresses: []string{owner.Email}},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(html.String())},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(text)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email for order %s: %w", o.ID, err)
	}
	return nil
}
