package notify

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
)

type SESSender struct {
	Client sesiface.SESAPI
	From   string
}

func NewSESSender(region, from string) (*SESSender, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return &SESSender{Client: ses.New(sess), From: from}, nil
}

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	_, err := s.Client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(s.From),
		Destination: &ses.Destination{
			ToAddresses: aws.StringSlice(msg.To),
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(msg.Subject),
			},
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.Body),
				},
			},
		},
	})
	return err
}
