package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/contract"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/errors"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/mail"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
	"github.com/karli2122/Loan-management-and-locker-sub000/internal/store"
)

// ContractService renders loan contract PDFs and emails them to clients.
type ContractService struct {
	clients store.ClientStore
	mailer  mail.Sender
	logger  *zap.Logger
}

// NewContractService creates a contract service.
func NewContractService(clients store.ClientStore, mailer mail.Sender, logger *zap.Logger) *ContractService {
	return &ContractService{clients: clients, mailer: mailer, logger: logger}
}

// Generate renders the contract PDF for a client and returns the bytes plus
// the download filename. The client must have a loan set up.
func (s *ContractService) Generate(ctx context.Context, actor *model.Admin, clientID string) ([]byte, string, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return nil, "", err
	}
	if client.LoanAmount <= 0 {
		return nil, "", errors.Validation("client has no loan set up; set up a loan first")
	}

	pdf, err := contract.Render(contract.DataFromRecords(actor, client))
	if err != nil {
		return nil, "", err
	}
	return pdf, contract.Filename(client.Name), nil
}

// SendEmail renders the contract and emails it to the client. The admin's
// email becomes the reply-to address when it looks valid.
func (s *ContractService) SendEmail(ctx context.Context, actor *model.Admin, clientID string) (string, error) {
	client, err := s.scopedClient(ctx, actor, clientID)
	if err != nil {
		return "", err
	}
	if client.Email == "" {
		return "", errors.Validation("client has no email address; add an email first")
	}
	if client.LoanAmount <= 0 {
		return "", errors.Validation("client has no loan set up; set up a loan first")
	}
	if !s.mailer.Configured() {
		return "", errors.Validation("email service not configured; set RESEND_API_KEY")
	}

	pdf, err := contract.Render(contract.DataFromRecords(actor, client))
	if err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, mail.Email{
		To:      client.Email,
		ReplyTo: actor.Email,
		Subject: "Laen",
		HTML:    "<p>Palun alkirjastage Leping ja saadke tagasi.</p>",
		Attachments: []mail.Attachment{{
			Filename: contract.Filename(client.Name),
			Content:  pdf,
		}},
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("contract emailed",
		zap.String("client_id", client.ID),
		zap.String("email_id", id))
	return fmt.Sprintf("Contract sent to %s", client.Email), nil
}

func (s *ContractService) scopedClient(ctx context.Context, actor *model.Admin, id string) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if !actor.IsSuperAdmin && client.AdminID != actor.ID {
		return nil, errors.NotFound("client not found")
	}
	return client, nil
}
