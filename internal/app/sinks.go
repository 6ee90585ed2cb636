package app

import (
	"context"
	"fmt"

	gmailtransport "github.com/custodia-labs/docrisk/internal/adapters/driven/google/gmail"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/google/sheets"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/mail/smtp"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/telegram"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/sinks"
)

// BuildSinks creates the enabled sinks in delivery order:
// archive, sheets, s3, email, telegram.
func BuildSinks(ctx context.Context, cfg domain.SinkSettings) ([]driven.Sink, error) {
	var out []driven.Sink

	if cfg.Archive.Enabled {
		out = append(out, sinks.NewLocalArchive(cfg.Archive.Path))
	}

	if cfg.Sheets.Enabled {
		var opts []sheets.Option
		if cfg.Sheets.ShareWith != "" {
			opts = append(opts, sheets.WithShareWith(cfg.Sheets.ShareWith))
		}
		store, err := sheets.NewFromCredentials(ctx, cfg.Sheets.CredentialsFile, nil, opts...)
		if err != nil {
			return nil, fmt.Errorf("sheets sink: %w", err)
		}
		out = append(out, sinks.NewTabularExport(store, cfg.Sheets.Name))
	}

	if cfg.S3.Enabled {
		store, err := s3.New(ctx, s3.Config{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 sink: %w", err)
		}
		out = append(out, sinks.NewObjectArchive(store, cfg.S3.Prefix))
	}

	if cfg.Email.Enabled {
		transport, err := emailTransport(ctx, cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("email sink: %w", err)
		}
		if cfg.Email.To == "" {
			return nil, fmt.Errorf("email sink: %w: recipient is required", domain.ErrInvalidInput)
		}
		out = append(out, sinks.NewNotification(transport, cfg.Email.To, cfg.Email.Subject))
	}

	if cfg.Telegram.Enabled {
		transport, err := telegram.New(cfg.Telegram.BotToken)
		if err != nil {
			return nil, fmt.Errorf("telegram sink: %w", err)
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram sink: %w: chat id is required", domain.ErrInvalidInput)
		}
		out = append(out, sinks.NewNotification(transport, cfg.Telegram.ChatID, cfg.Email.Subject))
	}

	return out, nil
}

func emailTransport(ctx context.Context, cfg domain.EmailSettings) (driven.MessageTransport, error) {
	switch cfg.Transport {
	case domain.EmailTransportSMTP, "":
		return smtp.New(smtp.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		})
	case domain.EmailTransportGmail:
		return gmailtransport.NewFromCredentials(ctx, cfg.CredentialsFile, cfg.From)
	default:
		return nil, fmt.Errorf("%w: email transport %q", domain.ErrUnsupportedType, cfg.Transport)
	}
}
