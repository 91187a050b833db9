package chat

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/thereayou/hr-portal/internal/models"
)

const (
	DefaultMaxMembers = 100
	MaxContentLength  = 1000
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type roomRules struct {
	Name           string   `json:"name" validate:"required,max=100"`
	Description    string   `json:"description" validate:"max=500"`
	MaxMembers     int      `json:"maxMembers" validate:"min=2,max=1000"`
	AutoDeleteDays int      `json:"autoDeleteDays" validate:"min=1,max=365"`
	Tags           []string `json:"tags" validate:"max=20,dive,required,max=30"`
}

type messageRules struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type fileRules struct {
	Name string `json:"fileName" validate:"required,max=255"`
	URL  string `json:"fileUrl" validate:"required"`
	Size int64  `json:"fileSize" validate:"gt=0"`
}

// normalizeRoom trims text fields and collapses tags to a deduplicated set.
func normalizeRoom(room *models.Room) {
	room.Name = strings.TrimSpace(room.Name)
	room.Description = strings.TrimSpace(room.Description)
	tags := lo.Map(room.Tags, func(t string, _ int) string { return strings.TrimSpace(t) })
	room.Tags = lo.Uniq(lo.Compact(tags))
	if room.Avatar != nil && strings.TrimSpace(*room.Avatar) == "" {
		room.Avatar = nil
	}
}

func validateRoom(room *models.Room) error {
	err := validate.Struct(roomRules{
		Name:           room.Name,
		Description:    room.Description,
		MaxMembers:     room.MaxMembers,
		AutoDeleteDays: room.Settings.AutoDeleteDays,
		Tags:           room.Tags,
	})
	if err != nil {
		return validationError(KindInvalidConfig, err)
	}
	if room.MemberCount() > room.MaxMembers {
		return newError(KindInvalidConfig, "maxMembers",
			"maxMembers %d is below the current member count %d", room.MaxMembers, room.MemberCount())
	}
	return nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if err := validate.Struct(messageRules{Content: content}); err != nil {
		return "", validationError(KindInvalidMessage, err)
	}
	return content, nil
}

func validateAttachment(msgType models.MessageType, file *models.FileMeta) error {
	if !msgType.Valid() {
		return newError(KindInvalidMessage, "messageType", "unknown message type %q", msgType)
	}
	if msgType == models.MessageText {
		if file != nil {
			return newError(KindInvalidMessage, "file", "text messages carry no file")
		}
		return nil
	}
	if file == nil {
		return newError(KindInvalidMessage, "file", "%s messages require file metadata", msgType)
	}
	if err := validate.Struct(fileRules{Name: strings.TrimSpace(file.Name), URL: strings.TrimSpace(file.URL), Size: file.Size}); err != nil {
		return validationError(KindInvalidMessage, err)
	}
	return nil
}

// validationError reports the first failing field.
func validationError(kind Kind, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: kind, Message: "invalid input", Cause: err}
	}
	fe := verrs[0]
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	return &Error{Kind: kind, Field: field, Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s exceeds the limit of %s", fe.Field(), fe.Param())
	case "min", "gt":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), minParam(fe))
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func minParam(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "above " + fe.Param()
	}
	return fe.Param()
}
