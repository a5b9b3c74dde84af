// Package anytype provides the typed client for the note application's
// local HTTP API: one method per upstream operation, DTOs mirroring the
// upstream payloads, and the request types the front doors accept.
package anytype

import (
	"encoding/json"
	"fmt"
)

// IconFormat is the kind of icon attached to a space, object or type.
type IconFormat string

const (
	IconFormatEmoji IconFormat = "emoji"
	IconFormatFile  IconFormat = "file"
	IconFormatIcon  IconFormat = "icon"
)

// Icon is the icon of a space, object, type or member.
type Icon struct {
	Format IconFormat `json:"format,omitempty"`
	Emoji  string     `json:"emoji,omitempty"`
	File   string     `json:"file,omitempty"`
	Name   string     `json:"name,omitempty"`
	Color  string     `json:"color,omitempty"`
}

// ExportFormat is the format an object can be exported in.
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatHTML     ExportFormat = "html"
	ExportFormatPDF      ExportFormat = "pdf"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatMarkdown, ExportFormatHTML, ExportFormatPDF:
		return true
	}
	return false
}

func (f *ExportFormat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed := ExportFormat(s)
	if !parsed.Valid() {
		return fmt.Errorf("invalid export format: %q", s)
	}
	*f = parsed
	return nil
}

// SortDirection is the direction search results are sorted in.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortDirectionAsc || d == SortDirectionDesc
}

// SortProperty is the property search results are sorted by.
type SortProperty string

const (
	SortPropertyCreatedDate      SortProperty = "created_date"
	SortPropertyLastModifiedDate SortProperty = "last_modified_date"
	SortPropertyLastOpenedDate   SortProperty = "last_opened_date"
	SortPropertyName             SortProperty = "name"
)

func (p SortProperty) Valid() bool {
	switch p {
	case SortPropertyCreatedDate, SortPropertyLastModifiedDate,
		SortPropertyLastOpenedDate, SortPropertyName:
		return true
	}
	return false
}

// MemberRole is a member's role within a space.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
	MemberRoleViewer MemberRole = "viewer"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleMember, MemberRoleViewer:
		return true
	}
	return false
}

// PaginationMeta echoes the request's limit/offset; total and has_more
// are advisory, upstream-supplied, and never recomputed locally.
type PaginationMeta struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total,omitempty"`
	HasMore bool `json:"has_more,omitempty"`
}

// Space is a top-level workspace for objects.
type Space struct {
	Object      string `json:"object,omitempty"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        *Icon  `json:"icon,omitempty"`
	GatewayURL  string `json:"gateway_url,omitempty"`
	NetworkID   string `json:"network_id,omitempty"`
}

// Member is a participant of a space. Read-only from this system.
type Member struct {
	Object     string     `json:"object,omitempty"`
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Icon       *Icon      `json:"icon,omitempty"`
	Identity   string     `json:"identity,omitempty"`
	GlobalName string     `json:"global_name,omitempty"`
	Status     string     `json:"status,omitempty"`
	Role       MemberRole `json:"role,omitempty"`
}

// Type defines the shape objects of that type may take. Key is the
// stable machine name, distinct from the id.
type Type struct {
	Object            string `json:"object,omitempty"`
	ID                string `json:"id"`
	Key               string `json:"key"`
	Name              string `json:"name"`
	Icon              *Icon  `json:"icon,omitempty"`
	Archived          bool   `json:"archived,omitempty"`
	RecommendedLayout string `json:"recommended_layout,omitempty"`
}

// Template is a named preset used when creating an object of a type.
type Template struct {
	Object   string `json:"object,omitempty"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     *Icon  `json:"icon,omitempty"`
	Archived bool   `json:"archived,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Tag is a value of a select/multi-select property, scoped to a
// (space, property) pair.
type Tag struct {
	Object string `json:"object,omitempty"`
	ID     string `json:"id"`
	Key    string `json:"key,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
}

// Filter is one filter condition of a view.
type Filter struct {
	ID          string `json:"id"`
	PropertyKey string `json:"property_key"`
	Format      string `json:"format"`
	Condition   string `json:"condition"`
	Value       string `json:"value,omitempty"`
}

// Sort is one sort rule of a view.
type Sort struct {
	ID          string `json:"id"`
	PropertyKey string `json:"property_key"`
	Format      string `json:"format"`
	SortType    string `json:"sort_type"`
}

// View is a saved presentation of a list within a space. Read-only here.
type View struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Layout  string   `json:"layout"`
	Filters []Filter `json:"filters,omitempty"`
	Sorts   []Sort   `json:"sorts,omitempty"`
}

// Text is the text content of a block.
type Text struct {
	Text    string `json:"text,omitempty"`
	Style   string `json:"style,omitempty"`
	Checked bool   `json:"checked,omitempty"`
	Color   string `json:"color,omitempty"`
	Icon    *Icon  `json:"icon,omitempty"`
}

// File is the file content of a block.
type File struct {
	Hash           string `json:"hash,omitempty"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	Mime           string `json:"mime,omitempty"`
	Size           int64  `json:"size,omitempty"`
	AddedAt        int64  `json:"added_at,omitempty"`
	TargetObjectID string `json:"target_object_id,omitempty"`
	State          string `json:"state,omitempty"`
	Style          string `json:"style,omitempty"`
}

// Property is a typed property value attached to an object or block.
type Property struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Format      string   `json:"format"`
	Text        string   `json:"text,omitempty"`
	Number      *float64 `json:"number,omitempty"`
	Checkbox    *bool    `json:"checkbox,omitempty"`
	Date        string   `json:"date,omitempty"`
	Select      *Tag     `json:"select,omitempty"`
	MultiSelect []Tag    `json:"multi_select,omitempty"`
	URL         string   `json:"url,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Files       []string `json:"file,omitempty"`
	Objects     []string `json:"object,omitempty"`
}

// Block is one typed segment of an object's body.
type Block struct {
	ID              string    `json:"id"`
	Align           string    `json:"align,omitempty"`
	VerticalAlign   string    `json:"vertical_align,omitempty"`
	BackgroundColor string    `json:"background_color,omitempty"`
	ChildrenIDs     []string  `json:"children_ids,omitempty"`
	Text            *Text     `json:"text,omitempty"`
	File            *File     `json:"file,omitempty"`
	Property        *Property `json:"property,omitempty"`
}

// Object is a single content item belonging to a space and a type.
// Blocks are only populated in single-object detail views; listing
// responses omit them.
type Object struct {
	Object     string     `json:"object,omitempty"`
	ID         string     `json:"id"`
	SpaceID    string     `json:"space_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Icon       *Icon      `json:"icon,omitempty"`
	Type       *Type      `json:"type,omitempty"`
	Layout     string     `json:"layout,omitempty"`
	Snippet    string     `json:"snippet,omitempty"`
	Archived   bool       `json:"archived,omitempty"`
	Blocks     []Block    `json:"blocks,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// SpaceList is a paginated listing of spaces.
type SpaceList struct {
	Spaces     []Space        `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// ObjectList is a paginated listing of objects.
type ObjectList struct {
	Objects    []Object       `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// MemberList is a paginated listing of members.
type MemberList struct {
	Members    []Member       `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// TypeList is a paginated listing of types.
type TypeList struct {
	Types      []Type         `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// TemplateList is a paginated listing of templates.
type TemplateList struct {
	Templates  []Template     `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// TagList is a paginated listing of tags.
type TagList struct {
	Tags       []Tag          `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// ViewList is a paginated listing of a list's views.
type ViewList struct {
	Views      []View         `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// Challenge is the first half of the two-step auth exchange. The
// challenge id is consumed exactly once by the matching API key call.
type Challenge struct {
	ChallengeID string `json:"challenge_id"`
}

// APIKey is the long-lived credential minted by the code exchange.
type APIKey struct {
	Key string `json:"api_key"`
}
