// Package endpoint maps logical operation names to upstream API path
// templates and resolves them into concrete request paths.
package endpoint

import (
	"fmt"
	"strings"

	"anybridge/pkg/apierr"
)

// BasePath is the versioned prefix every upstream path is mounted under.
const BasePath = "/v1"

// templates maps logical operation names to path templates. Placeholders
// use {name} syntax and must all be supplied at resolve time.
var templates = map[string]string{
	// Object operations
	"createObject":  "/spaces/{space_id}/objects",
	"getObject":     "/spaces/{space_id}/objects/{object_id}",
	"getObjects":    "/spaces/{space_id}/objects",
	"deleteObject":  "/spaces/{space_id}/objects/{object_id}",
	"getExport":     "/spaces/{space_id}/objects/{object_id}/export/{format}",
	"searchObjects": "/spaces/{space_id}/search",
	"globalSearch":  "/search",

	// Space operations
	"createSpace": "/spaces",
	"getSpaces":   "/spaces",
	"getSpace":    "/spaces/{space_id}",
	"getMembers":  "/spaces/{space_id}/members",
	"getMember":   "/spaces/{space_id}/members/{member_id}",

	// Type and template operations
	"getTypes":     "/spaces/{space_id}/types",
	"getType":      "/spaces/{space_id}/types/{type_id}",
	"getTemplates": "/spaces/{space_id}/types/{type_id}/templates",
	"getTemplate":  "/spaces/{space_id}/types/{type_id}/templates/{template_id}",

	// Tag operations (scoped to a property within a space)
	"getTags":   "/spaces/{space_id}/properties/{property_id}/tags",
	"getTag":    "/spaces/{space_id}/properties/{property_id}/tags/{tag_id}",
	"createTag": "/spaces/{space_id}/properties/{property_id}/tags",
	"updateTag": "/spaces/{space_id}/properties/{property_id}/tags/{tag_id}",
	"deleteTag": "/spaces/{space_id}/properties/{property_id}/tags/{tag_id}",

	// List (collection/query) operations
	"getListViews":     "/spaces/{space_id}/lists/{list_id}/views",
	"getListObjects":   "/spaces/{space_id}/lists/{list_id}/views/{view_id}/objects",
	"addListObjects":   "/spaces/{space_id}/lists/{list_id}/objects",
	"removeListObject": "/spaces/{space_id}/lists/{list_id}/objects/{object_id}",

	// Authentication (two-step challenge / API key exchange)
	"createChallenge": "/auth/challenges",
	"createApiKey":    "/auth/api_keys",
}

// Params holds placeholder values for path resolution. Values are
// substituted verbatim; callers are responsible for URL-safe input.
type Params map[string]string

// Resolve returns the concrete upstream path for a logical operation
// name, with every {placeholder} substituted from params. It fails with
// apierr.ErrUnknownEndpoint for unregistered names and
// apierr.ErrMissingParameter when a placeholder has no value.
func Resolve(name string, params Params) (string, error) {
	template, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", apierr.ErrUnknownEndpoint, name)
	}

	path := template
	for {
		start := strings.Index(path, "{")
		if start < 0 {
			break
		}
		end := strings.Index(path[start:], "}")
		if end < 0 {
			break
		}
		key := path[start+1 : start+end]
		value, ok := params[key]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: endpoint %s requires %q", apierr.ErrMissingParameter, name, key)
		}
		path = path[:start] + value + path[start+end+1:]
	}

	return BasePath + path, nil
}
