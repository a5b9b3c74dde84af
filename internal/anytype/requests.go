package anytype

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Page size bounds enforced at the REST boundary; the upstream accepts
// up to 1000 per search request.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
	maxSearchLimit  = 1000
)

// CreateSpaceRequest is the payload for creating a space.
type CreateSpaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r CreateSpaceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// CreateObjectRequest is the payload for creating an object. TypeKey
// references Type.Key, not Type.ID.
type CreateObjectRequest struct {
	Name        string `json:"name"`
	TypeKey     string `json:"type_key"`
	Body        string `json:"body,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        *Icon  `json:"icon,omitempty"`
	Source      string `json:"source,omitempty"`
	TemplateID  string `json:"template_id,omitempty"`
}

func (r CreateObjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.TypeKey, validation.Required),
	)
}

// SortOptions is the sorting criteria for search results.
type SortOptions struct {
	Direction SortDirection `json:"direction,omitempty"`
	Property  SortProperty  `json:"property_key,omitempty"`
}

func (s SortOptions) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Direction, validation.By(func(value interface{}) error {
			d := value.(SortDirection)
			if d != "" && !d.Valid() {
				return validation.NewError("validation_sort_direction", "must be asc or desc")
			}
			return nil
		})),
		validation.Field(&s.Property, validation.By(func(value interface{}) error {
			p := value.(SortProperty)
			if p != "" && !p.Valid() {
				return validation.NewError("validation_sort_property", "unknown sort property")
			}
			return nil
		})),
	)
}

// SearchRequest is the payload for space-scoped and global search. An
// empty query matches everything, which is how plain listing is
// expressed upstream.
type SearchRequest struct {
	Query  string       `json:"query"`
	Types  []string     `json:"types,omitempty"`
	Sort   *SortOptions `json:"sort,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Limit, validation.Min(0), validation.Max(maxSearchLimit)),
		validation.Field(&r.Offset, validation.Min(0)),
		validation.Field(&r.Sort),
	)
}

// CreateTagRequest is the payload for creating a tag on a property.
type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (r CreateTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// AddObjectsRequest is the payload for adding objects to a list.
type AddObjectsRequest struct {
	Objects []string `json:"objects"`
}

func (r AddObjectsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Objects, validation.Required),
	)
}

// UpdateTagRequest is the payload for updating a tag. Nil fields are
// left unchanged upstream.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

func (r UpdateTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
	)
}
