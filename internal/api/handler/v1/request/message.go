package request

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/samber/lo"

	"github.com/chatroom/presence-api/internal/domain"
)

type PostMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

func (req *PostMessageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.To, validation.Required),
		validation.Field(&req.Text, validation.Required),
		validation.Field(&req.Type, validation.Required,
			validation.In(string(domain.MessageTypeMessage), string(domain.MessageTypePrivate))),
	)
}

// ParseLimit turns the optional limit query parameter into a pointer: nil
// when absent, an error wrapping domain.ErrInvalidLimit when present but not
// a positive integer. Values beyond the int range mean no truncation.
func ParseLimit(raw string, present bool) (*int, error) {
	if !present {
		return nil, nil
	}

	trimmed := strings.TrimSpace(raw)
	n, err := strconv.Atoi(trimmed)
	// Too large to represent is still larger than any history.
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(trimmed, "-") {
		return lo.ToPtr(math.MaxInt), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLimit, raw)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidLimit, n)
	}

	return &n, nil
}
