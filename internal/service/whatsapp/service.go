package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plantcare/internal/config"
	"github.com/mamadbah2/plantcare/internal/domain/models"
	"github.com/mamadbah2/plantcare/internal/service/commands"
	client "github.com/mamadbah2/plantcare/pkg/clients/whatsapp"
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

var photoHint = models.AutomationReply{
	Title:   "Photos",
	Message: "Photos are identified from the app. Register the plant there, then use /water and /due here.",
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				if status.Status == "failed" {
					s.logger.Warn("message delivery failed", zap.String("message_id", status.ID), zap.String("recipient", status.RecipientID))
				}
			}
			for _, werr := range change.Value.Errors {
				s.logger.Warn("webhook reported error", zap.Int("code", werr.Code), zap.String("title", werr.Title), zap.String("message", werr.Message))
			}

			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	var reply models.AutomationReply

	if msg.PhotoOnly() {
		reply = photoHint
	} else {
		text := msg.Body()
		if text == "" {
			s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
			return nil
		}

		cmd := models.ParseCommand(text)
		s.logger.Info("parsed inbound command",
			zap.String("from", msg.From),
			zap.String("command", string(cmd.Type)),
			zap.Any("args", cmd.Args))

		reply = s.dispatch(ctx, cmd, msg.From)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendText(ctxWithTimeout, msg.From, reply.String())
	return err
}

func (s *MetaWhatsAppService) dispatch(ctx context.Context, cmd models.Command, sender string) models.AutomationReply {
	reply, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	switch {
	case err == nil:
		return reply
	case errors.Is(err, commands.ErrUnsupportedCommand):
		return commands.HelpReply
	case errors.Is(err, commands.ErrInvalidArguments):
		return models.AutomationReply{Title: "Sorry", Message: fmt.Sprintf("%v\nSend /help for the command list.", err)}
	default:
		s.logger.Error("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		return models.AutomationReply{Title: "Sorry", Message: "Something went wrong, please try again later."}
	}
}
