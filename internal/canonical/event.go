package canonical

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"devevent/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Event validates raw and returns the canonical event it describes. When prev
// is non-nil the submission is an edit of prev: the slug, date and time are
// only re-derived when their source field changed, and ID and timestamps are
// carried over. The returned slug is the base slug; uniqueness against other
// events is the caller's concern.
func Event(raw *domain.RawEvent, prev *domain.Event) (*domain.Event, error) {
	if raw == nil {
		return nil, domain.NewValidationError("", "event is required")
	}
	in := trimmed(raw)
	if err := validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	ev := &domain.Event{
		Title:       in.Title,
		Description: in.Description,
		Overview:    in.Overview,
		Image:       in.Image,
		Venue:       in.Venue,
		Location:    in.Location,
		Mode:        domain.EventMode(in.Mode),
		Audience:    in.Audience,
		Agenda:      in.Agenda,
		Organizer:   in.Organizer,
		Tags:        dedupe(in.Tags),
	}
	if prev != nil {
		ev.ID = prev.ID
		ev.CreatedAt = prev.CreatedAt
		ev.UpdatedAt = prev.UpdatedAt
	}

	if prev != nil && prev.Title == ev.Title {
		ev.Slug = prev.Slug
	} else {
		ev.Slug = Slugify(ev.Title)
		if ev.Slug == "" {
			return nil, domain.NewValidationError("title", "must contain at least one letter or digit")
		}
	}

	var err error
	if prev != nil && prev.Date == in.Date {
		ev.Date = prev.Date
	} else if ev.Date, err = NormalizeDate(in.Date); err != nil {
		return nil, err
	}

	if prev != nil && prev.Time == in.Time {
		ev.Time = prev.Time
	} else if ev.Time, err = NormalizeTime(in.Time); err != nil {
		return nil, err
	}

	return ev, nil
}

func trimmed(raw *domain.RawEvent) *domain.RawEvent {
	return &domain.RawEvent{
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Overview:    strings.TrimSpace(raw.Overview),
		Image:       strings.TrimSpace(raw.Image),
		Venue:       strings.TrimSpace(raw.Venue),
		Location:    strings.TrimSpace(raw.Location),
		Date:        strings.TrimSpace(raw.Date),
		Time:        strings.TrimSpace(raw.Time),
		Mode:        strings.TrimSpace(raw.Mode),
		Audience:    strings.TrimSpace(raw.Audience),
		Agenda:      trimAll(raw.Agenda),
		Organizer:   strings.TrimSpace(raw.Organizer),
		Tags:        trimAll(raw.Tags),
	}
}

func trimAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// dedupe drops repeated tags, keeping the first occurrence.
func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	field, _, isItem := strings.Cut(fe.Field(), "[")
	switch {
	case isItem:
		return domain.NewValidationError(field, "items must not be empty")
	case fe.Kind() == reflect.Slice:
		return domain.NewValidationError(field, "must have at least one item")
	case fe.Tag() == "oneof":
		return domain.NewValidationError(field, "must be one of: "+strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return domain.NewValidationError(field, "is required")
	}
}
