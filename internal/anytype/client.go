package anytype

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"anybridge/internal/endpoint"
	"anybridge/internal/upstream"
	"anybridge/pkg/apierr"
	"anybridge/pkg/logging"
)

// Client is the typed domain client. It owns no entity state across
// calls; the only mutable fields are the process-level app key fallback
// and the id of the most recently started auth challenge.
type Client struct {
	exec       *upstream.Executor
	appKey     string
	httpClient *http.Client

	mu sync.Mutex
	// lastChallengeID tracks the most recent StartChallenge result so
	// ExchangeChallenge can be called without repeating it. Starting a new
	// challenge overwrites this; the upstream, not this client, enforces
	// single use.
	lastChallengeID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the upstream HTTP client, used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// New creates a Client for the upstream API at baseURL. appKey is the
// process-level bearer fallback applied when a call supplies no token.
func New(baseURL, appKey string, opts ...Option) *Client {
	c := &Client{appKey: appKey}
	for _, opt := range opts {
		opt(c)
	}
	var execOpts []upstream.Option
	if c.httpClient != nil {
		execOpts = append(execOpts, upstream.WithHTTPClient(c.httpClient))
	}
	c.exec = upstream.NewExecutor(baseURL, appKey, execOpts...)
	return c
}

// pageQuery builds the limit/offset query shared by all listing calls.
func pageQuery(limit, offset int) url.Values {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
}

// decodeMap round-trips a normalized mapping through JSON into a typed
// value. Decode failures surface as ErrInvalidResponse.
func decodeMap[T any](m map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("%w: %v", apierr.ErrInvalidResponse, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", apierr.ErrInvalidResponse, err)
	}
	return out, nil
}

func decodeSlice[T any](items []map[string]any) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		decoded, err := decodeMap[T](item)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// objectFromMap builds a typed Object from a raw upstream payload. The
// raw blocks and details sub-structures are stripped before decoding and
// the blocks re-embedded typed, because the same payload shape is reused
// with and without blocks and must not be double-encoded.
func objectFromMap(m map[string]any) (Object, error) {
	rawBlocks := m["blocks"]
	flat := make(map[string]any, len(m))
	for k, v := range m {
		if k == "blocks" || k == "details" {
			continue
		}
		flat[k] = v
	}

	obj, err := decodeMap[Object](flat)
	if err != nil {
		return Object{}, err
	}

	if list, ok := rawBlocks.([]any); ok && len(list) > 0 {
		normalized, err := upstream.Normalize(list)
		if err != nil {
			return Object{}, err
		}
		blocks, err := decodeSlice[Block](normalized)
		if err != nil {
			return Object{}, err
		}
		obj.Blocks = blocks
	}
	return obj, nil
}

// paginationFromMap extracts the pagination envelope from a raw listing
// response, echoing the requested limit/offset when the upstream omits
// them.
func paginationFromMap(raw map[string]any, limit, offset int) PaginationMeta {
	if p, ok := raw["pagination"].(map[string]any); ok {
		if meta, err := decodeMap[PaginationMeta](p); err == nil {
			return meta
		}
	}
	return PaginationMeta{Limit: limit, Offset: offset}
}

// call resolves an endpoint, executes the request and returns the raw
// decoded mapping. All error taxonomy values bubble unchanged.
func (c *Client) call(ctx context.Context, name string, params endpoint.Params, req upstream.Request) (map[string]any, error) {
	path, err := endpoint.Resolve(name, params)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return c.exec.Do(ctx, req)
}

// --- Spaces ---

// CreateSpace creates a new space.
func (c *Client) CreateSpace(ctx context.Context, req CreateSpaceRequest, token string) (Space, error) {
	if err := req.Validate(); err != nil {
		return Space{}, err
	}
	raw, err := c.call(ctx, "createSpace", nil, upstream.Request{
		Method: http.MethodPost,
		Body:   req,
		Token:  token,
	})
	if err != nil {
		return Space{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Space{}, err
	}
	return decodeMap[Space](m)
}

// ListSpaces returns the spaces visible to the token's account.
func (c *Client) ListSpaces(ctx context.Context, limit, offset int, token string) (SpaceList, error) {
	raw, err := c.call(ctx, "getSpaces", nil, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return SpaceList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return SpaceList{}, err
	}
	spaces, err := decodeSlice[Space](items)
	if err != nil {
		return SpaceList{}, err
	}
	return SpaceList{Spaces: spaces, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// GetSpace returns a single space.
func (c *Client) GetSpace(ctx context.Context, spaceID, token string) (Space, error) {
	raw, err := c.call(ctx, "getSpace", endpoint.Params{"space_id": spaceID}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Space{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Space{}, err
	}
	return decodeMap[Space](m)
}

// --- Members ---

// ListMembers returns the members of a space.
func (c *Client) ListMembers(ctx context.Context, spaceID string, limit, offset int, token string) (MemberList, error) {
	raw, err := c.call(ctx, "getMembers", endpoint.Params{"space_id": spaceID}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return MemberList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return MemberList{}, err
	}
	members, err := decodeSlice[Member](items)
	if err != nil {
		return MemberList{}, err
	}
	return MemberList{Members: members, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// GetMember returns a single member of a space.
func (c *Client) GetMember(ctx context.Context, spaceID, memberID, token string) (Member, error) {
	raw, err := c.call(ctx, "getMember", endpoint.Params{"space_id": spaceID, "member_id": memberID}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Member{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Member{}, err
	}
	return decodeMap[Member](m)
}

// --- Objects ---

// CreateObject creates a new object in a space.
func (c *Client) CreateObject(ctx context.Context, spaceID string, req CreateObjectRequest, token string) (Object, error) {
	if err := req.Validate(); err != nil {
		return Object{}, err
	}
	raw, err := c.call(ctx, "createObject", endpoint.Params{"space_id": spaceID}, upstream.Request{
		Method: http.MethodPost,
		Body:   req,
		Token:  token,
	})
	if err != nil {
		return Object{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Object{}, err
	}
	return objectFromMap(m)
}

// GetObject returns the full details of a single object, blocks included.
func (c *Client) GetObject(ctx context.Context, spaceID, objectID, token string) (Object, error) {
	raw, err := c.call(ctx, "getObject", endpoint.Params{"space_id": spaceID, "object_id": objectID}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Object{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Object{}, err
	}
	return objectFromMap(m)
}

// DeleteObject archives an object; the upstream never physically removes
// it. The archived object is returned.
func (c *Client) DeleteObject(ctx context.Context, spaceID, objectID, token string) (Object, error) {
	raw, err := c.call(ctx, "deleteObject", endpoint.Params{"space_id": spaceID, "object_id": objectID}, upstream.Request{
		Method: http.MethodDelete,
		Token:  token,
	})
	if err != nil {
		return Object{}, err
	}
	if len(raw) == 0 {
		// 204 from older upstream revisions.
		return Object{ID: objectID, SpaceID: spaceID, Archived: true}, nil
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Object{}, err
	}
	return objectFromMap(m)
}

// SearchObjects performs a search within a single space.
func (c *Client) SearchObjects(ctx context.Context, spaceID string, req SearchRequest, token string) (ObjectList, error) {
	if err := req.Validate(); err != nil {
		return ObjectList{}, err
	}
	raw, err := c.call(ctx, "searchObjects", endpoint.Params{"space_id": spaceID}, upstream.Request{
		Method: http.MethodPost,
		Body:   req,
		Query:  pageQuery(req.Limit, req.Offset),
		Token:  token,
	})
	if err != nil {
		return ObjectList{}, err
	}
	return c.objectListFromRaw(raw, req.Limit, req.Offset)
}

// ListObjects lists the objects of a space. It is defined as a search
// with an empty query and shares search's pagination behavior exactly.
func (c *Client) ListObjects(ctx context.Context, spaceID string, types []string, limit, offset int, sort *SortOptions, token string) (ObjectList, error) {
	return c.SearchObjects(ctx, spaceID, SearchRequest{
		Query:  "",
		Types:  types,
		Sort:   sort,
		Limit:  limit,
		Offset: offset,
	}, token)
}

// GlobalSearch performs a search across all spaces.
func (c *Client) GlobalSearch(ctx context.Context, req SearchRequest, token string) (ObjectList, error) {
	if err := req.Validate(); err != nil {
		return ObjectList{}, err
	}
	raw, err := c.call(ctx, "globalSearch", nil, upstream.Request{
		Method: http.MethodPost,
		Body:   req,
		Query:  pageQuery(req.Limit, req.Offset),
		Token:  token,
	})
	if err != nil {
		return ObjectList{}, err
	}
	return c.objectListFromRaw(raw, req.Limit, req.Offset)
}

func (c *Client) objectListFromRaw(raw map[string]any, limit, offset int) (ObjectList, error) {
	items, err := upstream.Normalize(raw)
	if err != nil {
		return ObjectList{}, err
	}
	objects := make([]Object, 0, len(items))
	for _, item := range items {
		obj, err := objectFromMap(item)
		if err != nil {
			return ObjectList{}, err
		}
		objects = append(objects, obj)
	}
	return ObjectList{Objects: objects, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// ExportObject exports a single object in the given format and returns
// the rendered content.
func (c *Client) ExportObject(ctx context.Context, spaceID, objectID string, format ExportFormat, token string) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("invalid export format: %q", format)
	}
	raw, err := c.call(ctx, "getExport", endpoint.Params{
		"space_id":  spaceID,
		"object_id": objectID,
		"format":    string(format),
	}, upstream.Request{
		Method: http.MethodPost,
		Token:  token,
	})
	if err != nil {
		return "", err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return "", err
	}
	// Current upstream keys the content by format name; older revisions
	// used a generic "content" field.
	if content, ok := m[string(format)].(string); ok {
		return content, nil
	}
	if content, ok := m["content"].(string); ok {
		return content, nil
	}
	return "", nil
}

// --- Types and templates ---

// ListTypes returns the object types of a space.
func (c *Client) ListTypes(ctx context.Context, spaceID string, limit, offset int, token string) (TypeList, error) {
	raw, err := c.call(ctx, "getTypes", endpoint.Params{"space_id": spaceID}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return TypeList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return TypeList{}, err
	}
	types, err := decodeSlice[Type](items)
	if err != nil {
		return TypeList{}, err
	}
	return TypeList{Types: types, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// GetType returns a single type.
func (c *Client) GetType(ctx context.Context, spaceID, typeID, token string) (Type, error) {
	raw, err := c.call(ctx, "getType", endpoint.Params{"space_id": spaceID, "type_id": typeID}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Type{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Type{}, err
	}
	return decodeMap[Type](m)
}

// ListTemplates returns the templates of a type.
func (c *Client) ListTemplates(ctx context.Context, spaceID, typeID string, limit, offset int, token string) (TemplateList, error) {
	raw, err := c.call(ctx, "getTemplates", endpoint.Params{"space_id": spaceID, "type_id": typeID}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return TemplateList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return TemplateList{}, err
	}
	templates, err := decodeSlice[Template](items)
	if err != nil {
		return TemplateList{}, err
	}
	return TemplateList{Templates: templates, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// GetTemplate returns a single template.
func (c *Client) GetTemplate(ctx context.Context, spaceID, typeID, templateID, token string) (Template, error) {
	raw, err := c.call(ctx, "getTemplate", endpoint.Params{
		"space_id":    spaceID,
		"type_id":     typeID,
		"template_id": templateID,
	}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Template{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Template{}, err
	}
	return decodeMap[Template](m)
}

// --- Tags ---

// ListTags returns the tags of a property.
func (c *Client) ListTags(ctx context.Context, spaceID, propertyID string, limit, offset int, token string) (TagList, error) {
	raw, err := c.call(ctx, "getTags", endpoint.Params{"space_id": spaceID, "property_id": propertyID}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return TagList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return TagList{}, err
	}
	tags, err := decodeSlice[Tag](items)
	if err != nil {
		return TagList{}, err
	}
	return TagList{Tags: tags, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// GetTag returns a single tag.
func (c *Client) GetTag(ctx context.Context, spaceID, propertyID, tagID, token string) (Tag, error) {
	raw, err := c.call(ctx, "getTag", endpoint.Params{
		"space_id":    spaceID,
		"property_id": propertyID,
		"tag_id":      tagID,
	}, upstream.Request{
		Method: http.MethodGet,
		Token:  token,
	})
	if err != nil {
		return Tag{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Tag{}, err
	}
	return decodeMap[Tag](m)
}

// CreateTag creates a tag on a property.
func (c *Client) CreateTag(ctx context.Context, spaceID, propertyID string, req CreateTagRequest, token string) (Tag, error) {
	if err := req.Validate(); err != nil {
		return Tag{}, err
	}
	raw, err := c.call(ctx, "createTag", endpoint.Params{"space_id": spaceID, "property_id": propertyID}, upstream.Request{
		Method: http.MethodPost,
		Body:   req,
		Token:  token,
	})
	if err != nil {
		return Tag{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Tag{}, err
	}
	return decodeMap[Tag](m)
}

// UpdateTag updates a tag's name or color.
func (c *Client) UpdateTag(ctx context.Context, spaceID, propertyID, tagID string, req UpdateTagRequest, token string) (Tag, error) {
	if err := req.Validate(); err != nil {
		return Tag{}, err
	}
	raw, err := c.call(ctx, "updateTag", endpoint.Params{
		"space_id":    spaceID,
		"property_id": propertyID,
		"tag_id":      tagID,
	}, upstream.Request{
		Method: http.MethodPatch,
		Body:   req,
		Token:  token,
	})
	if err != nil {
		return Tag{}, err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Tag{}, err
	}
	return decodeMap[Tag](m)
}

// DeleteTag archives a tag.
func (c *Client) DeleteTag(ctx context.Context, spaceID, propertyID, tagID, token string) (Tag, error) {
	raw, err := c.call(ctx, "deleteTag", endpoint.Params{
		"space_id":    spaceID,
		"property_id": propertyID,
		"tag_id":      tagID,
	}, upstream.Request{
		Method: http.MethodDelete,
		Token:  token,
	})
	if err != nil {
		return Tag{}, err
	}
	if len(raw) == 0 {
		return Tag{ID: tagID}, nil
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return Tag{}, err
	}
	return decodeMap[Tag](m)
}

// --- Lists ---

// ListViews returns the saved views of a list.
func (c *Client) ListViews(ctx context.Context, spaceID, listID string, limit, offset int, token string) (ViewList, error) {
	raw, err := c.call(ctx, "getListViews", endpoint.Params{"space_id": spaceID, "list_id": listID}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return ViewList{}, err
	}
	items, err := upstream.Normalize(raw)
	if err != nil {
		return ViewList{}, err
	}
	views, err := decodeSlice[View](items)
	if err != nil {
		return ViewList{}, err
	}
	return ViewList{Views: views, Pagination: paginationFromMap(raw, limit, offset)}, nil
}

// ListObjectsInList returns the objects of a list as seen through one
// of its views.
func (c *Client) ListObjectsInList(ctx context.Context, spaceID, listID, viewID string, limit, offset int, token string) (ObjectList, error) {
	raw, err := c.call(ctx, "getListObjects", endpoint.Params{
		"space_id": spaceID,
		"list_id":  listID,
		"view_id":  viewID,
	}, upstream.Request{
		Method: http.MethodGet,
		Query:  pageQuery(limit, offset),
		Token:  token,
	})
	if err != nil {
		return ObjectList{}, err
	}
	return c.objectListFromRaw(raw, limit, offset)
}

// AddObjectsToList adds objects to a list by id.
func (c *Client) AddObjectsToList(ctx context.Context, spaceID, listID string, req AddObjectsRequest, token string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	_, err := c.call(ctx, "addListObjects", endpoint.Params{"space_id": spaceID, "list_id": listID}, upstream.Request{
		Method: http.MethodPost,
		Body:   req.Objects,
		Token:  token,
	})
	return err
}

// RemoveObjectFromList removes a single object from a list. The object
// itself is untouched.
func (c *Client) RemoveObjectFromList(ctx context.Context, spaceID, listID, objectID, token string) error {
	_, err := c.call(ctx, "removeListObject", endpoint.Params{
		"space_id":  spaceID,
		"list_id":   listID,
		"object_id": objectID,
	}, upstream.Request{
		Method: http.MethodDelete,
		Token:  token,
	})
	return err
}

// --- Auth ---

// StartChallenge begins the two-step auth exchange and returns the
// challenge id. The id of the previous challenge, if any, is no longer
// tracked after this call.
func (c *Client) StartChallenge(ctx context.Context, appName string) (string, error) {
	raw, err := c.call(ctx, "createChallenge", nil, upstream.Request{
		Method:   http.MethodPost,
		Body:     map[string]string{"app_name": appName},
		SkipAuth: true,
	})
	if err != nil {
		return "", err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return "", err
	}
	challenge, err := decodeMap[Challenge](m)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.lastChallengeID = challenge.ChallengeID
	c.mu.Unlock()

	logging.Info("Auth", "started auth challenge for app %q", appName)
	return challenge.ChallengeID, nil
}

// ExchangeChallenge trades a challenge id plus the user-entered code for
// a long-lived API key. An empty challengeID falls back to the id from
// the most recent StartChallenge call.
func (c *Client) ExchangeChallenge(ctx context.Context, challengeID, code string) (string, error) {
	if challengeID == "" {
		c.mu.Lock()
		challengeID = c.lastChallengeID
		c.mu.Unlock()
	}
	if challengeID == "" {
		return "", errors.New("no challenge id available, call StartChallenge first")
	}

	raw, err := c.call(ctx, "createApiKey", nil, upstream.Request{
		Method:   http.MethodPost,
		Body:     map[string]string{"challenge_id": challengeID, "code": code},
		SkipAuth: true,
	})
	if err != nil {
		return "", err
	}
	m, err := upstream.NormalizeOne(raw)
	if err != nil {
		return "", err
	}
	key, err := decodeMap[APIKey](m)
	if err != nil {
		return "", err
	}
	return key.Key, nil
}

// ValidateToken checks a bearer token with a low-cost, side-effect-free
// listing call. Unauthorized means false; any other failure is returned
// as an error so callers can tell a bad credential from a broken
// upstream.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	_, err := c.ListSpaces(ctx, 1, 0, token)
	if err != nil {
		if errors.Is(err, apierr.ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
