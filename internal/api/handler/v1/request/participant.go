package request

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/chatroom/presence-api/internal/config"
)

var errReservedName = errors.New("name is reserved")

type CreateParticipantRequest struct {
	Name string `json:"name"`
}

// Validate requires a non-empty name. The length cap and the ban on the
// broadcast target (in any letter case) only apply when chat enables them.
func (req *CreateParticipantRequest) Validate(chat *config.ChatConfig) error {
	rules := []validation.Rule{validation.Required}
	if chat.MaxNameLength > 0 {
		rules = append(rules, validation.Length(1, chat.MaxNameLength))
	}
	if chat.ReserveBroadcastName {
		rules = append(rules, validation.By(notReserved(chat.BroadcastTarget)))
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, rules...),
	)
}

func notReserved(reserved string) validation.RuleFunc {
	pattern := fmt.Sprintf(`^(?!\s*%s\s*$)`, regexp2.Escape(reserved))
	exp := regexp2.MustCompile(pattern, regexp2.IgnoreCase)

	return func(value interface{}) error {
		s, _ := value.(string)
		ok, err := exp.MatchString(s)
		if err != nil {
			return err
		}
		if !ok {
			return errReservedName
		}

		return nil
	}
}
