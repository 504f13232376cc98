package squarecustomers

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/square"
)

// Service ensures Square customer records exist and vaults cards against them.
type Service interface {
	EnsureCustomer(ctx context.Context, input Input) (string, error)
	VaultCard(ctx context.Context, input CardInput) (*Card, error)
}

// Client is the subset of the Square wrapper the service needs.
type Client interface {
	EnsureCustomer(ctx context.Context, params square.CustomerCreateParams) (*sq.Customer, error)
	CreateCard(ctx context.Context, params square.CardCreateParams) (*sq.Card, error)
}

// Input contains the fields required to create or locate a Square customer.
type Input struct {
	ReferenceID string
	Email       string
	DisplayName string
	Phone       *string
}

// CardInput carries a tokenized card nonce from the client SDK.
type CardInput struct {
	CustomerID        string
	Nonce             string
	CardholderName    string
	VerificationToken string
	ReferenceID       string
}

// Card is the vaulted card as returned to callers.
type Card struct {
	ID       string `json:"id"`
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last_4,omitempty"`
	ExpMonth int64  `json:"exp_month,omitempty"`
	ExpYear  int64  `json:"exp_year,omitempty"`
}

type service struct {
	client Client
}

// NewService builds a service that uses the shared Square client.
func NewService(client Client) Service {
	return &service{client: client}
}

func (s *service) EnsureCustomer(ctx context.Context, input Input) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New(errors.CodeInternal, "square client required")
	}

	given, family := splitName(input.DisplayName)
	params := square.CustomerCreateParams{
		Email:       strings.TrimSpace(input.Email),
		PhoneNumber: strings.TrimSpace(safeString(input.Phone)),
		GivenName:   given,
		FamilyName:  family,
		ReferenceID: DefaultReferenceID(input.ReferenceID, input.Email),
	}

	customer, err := s.client.EnsureCustomer(ctx, params)
	if err != nil {
		return "", errors.Wrap(errors.CodeDependency, err, "ensure square customer")
	}
	if customer == nil {
		return "", errors.New(errors.CodeDependency, "square customer missing")
	}
	if id := customer.ID; id != nil && strings.TrimSpace(*id) != "" {
		return *id, nil
	}
	return "", errors.New(errors.CodeDependency, "square customer id missing")
}

func (s *service) VaultCard(ctx context.Context, input CardInput) (*Card, error) {
	if s == nil || s.client == nil {
		return nil, errors.New(errors.CodeInternal, "square client required")
	}
	if strings.TrimSpace(input.CustomerID) == "" {
		return nil, errors.New(errors.CodeValidation, "square customer required")
	}
	if strings.TrimSpace(input.Nonce) == "" {
		return nil, errors.New(errors.CodeValidation, "card nonce required")
	}

	card, err := s.client.CreateCard(ctx, square.CardCreateParams{
		CustomerID:        input.CustomerID,
		SourceID:          strings.TrimSpace(input.Nonce),
		CardholderName:    input.CardholderName,
		VerificationToken: input.VerificationToken,
		ReferenceID:       input.ReferenceID,
	})
	if err != nil {
		// The Square wrapper already maps declines and bad requests to typed codes.
		if errors.As(err) != nil {
			return nil, err
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "vault card")
	}
	if card == nil || card.ID == nil {
		return nil, errors.New(errors.CodeDependency, "square card id missing")
	}
	out := &Card{ID: *card.ID, Last4: safeString(card.Last4)}
	if card.CardBrand != nil {
		out.Brand = string(*card.CardBrand)
	}
	if card.ExpMonth != nil {
		out.ExpMonth = *card.ExpMonth
	}
	if card.ExpYear != nil {
		out.ExpYear = *card.ExpYear
	}
	return out, nil
}

// DefaultReferenceID returns a deterministic reference value for the provided fields.
func DefaultReferenceID(reference, email string) string {
	if trimmed := strings.TrimSpace(reference); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("rb:user:%s", normalizeReferencePart(strings.ToLower(email)))
}

func normalizeReferencePart(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var builder strings.Builder
	for _, r := range trimmed {
		if r == ' ' || r == '_' || r == '-' || r == '.' || r == '@' {
			builder.WriteRune('-')
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			continue
		}
	}
	result := builder.String()
	if result == "" {
		return "guest"
	}
	return result
}

func splitName(display string) (string, string) {
	fields := strings.Fields(display)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

func safeString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
