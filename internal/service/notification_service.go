package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"routineboard/internal/models"
	"routineboard/internal/routine"
)

// EmailSender is the part of the SES client used to deliver mail
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NotificationService emails parents through Amazon SES
type NotificationService struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewNotificationService creates a notification service. It is disabled when
// fromEmail is empty and then drops every message.
func NewNotificationService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*NotificationService, error) {
	if fromEmail == "" {
		log.Info().Msg("Notifications disabled: SES_FROM_EMAIL not configured")
		return &NotificationService{}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("region", awsRegion).Str("from", fromEmail).Msg("Notifications enabled")
	return newNotificationService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

func newNotificationService(client EmailSender, fromEmail, fromName, appBaseURL string) *NotificationService {
	return &NotificationService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    client != nil && fromEmail != "",
	}
}

// IsEnabled reports whether messages are actually sent
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// SendRoutineCompleted tells a parent that their child finished a routine
func (s *NotificationService) SendRoutineCompleted(ctx context.Context, to, childName, routineName string, summary *models.RoutineSuccessSummary) error {
	if !s.enabled {
		log.Debug().Str("to", to).Str("routine", routineName).Msg("Skipping notification (service disabled)")
		return nil
	}

	subject := fmt.Sprintf("%s finished %s", childName, routineName)
	lines := completionLines(summary)
	link := s.appBaseURL + routine.SuccessHref(summary.SessionID)

	var items strings.Builder
	for _, line := range lines {
		items.WriteString("\t\t\t\t<li>" + html.EscapeString(line) + "</li>\n")
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
			<ul>
%s			</ul>
			<p><a href="%s">See the celebration</a></p>
		</div>
		<div class="footer">
			<p>This is an automated email from Routine Board. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(subject), items.String(), html.EscapeString(link))

	textBody := subject + "\n\n- " + strings.Join(lines, "\n- ") + "\n\n" + link +
		"\n\n---\nThis is an automated email from Routine Board. Please do not reply.\n"

	return s.sendEmail(ctx, to, subject, htmlBody, textBody)
}

func completionLines(summary *models.RoutineSuccessSummary) []string {
	lines := []string{
		fmt.Sprintf("Points earned: %d", summary.PointsEarned),
		fmt.Sprintf("Time: %d min", summary.TotalTimeMinutes),
	}
	if summary.BestTimeBeaten {
		lines = append(lines, "New best time!")
	}
	if summary.StreakDays > 1 {
		lines = append(lines, fmt.Sprintf("Streak: %d days", summary.StreakDays))
	}
	for _, badge := range summary.BadgesUnlocked {
		lines = append(lines, "Badge unlocked: "+badge.Name)
	}
	return lines
}

func (s *NotificationService) sendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	event := log.Info().Str("to", to).Str("subject", subject)
	if result != nil && result.MessageId != nil {
		event = event.Str("message_id", *result.MessageId)
	}
	event.Msg("Email sent")
	return nil
}
