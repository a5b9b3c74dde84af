package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"anybridge/internal/anytype"
	textutil "anybridge/pkg/strings"
)

// jsonResult marshals a typed result into an indented JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// page reads the optional limit/offset arguments.
func page(request mcp.CallToolRequest) (int, int) {
	args := request.GetArguments()
	limit := anytype.DefaultPageSize
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	if limit > anytype.MaxPageSize {
		limit = anytype.MaxPageSize
	}
	offset := 0
	if v, ok := args["offset"].(float64); ok && v > 0 {
		offset = int(v)
	}
	return limit, offset
}

// stringSlice reads an optional string-array argument.
func stringSlice(request mcp.CallToolRequest, key string) []string {
	raw, ok := request.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// --- Spaces ---

func (s *Server) createSpaceTool() mcp.Tool {
	return mcp.NewTool("create_space",
		mcp.WithDescription("Create a new space in the note application"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the space")),
		mcp.WithString("description", mcp.Description("Optional description")),
	)
}

func (s *Server) handleCreateSpace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, _ := request.GetArguments()["description"].(string)

	space, err := s.client.CreateSpace(ctx, anytype.CreateSpaceRequest{
		Name:        name,
		Description: description,
	}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(space)
}

func (s *Server) listSpacesTool() mcp.Tool {
	return mcp.NewTool("list_spaces",
		mcp.WithDescription("List all spaces visible to the configured account"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of spaces to return")),
		mcp.WithNumber("offset", mcp.Description("Number of spaces to skip")),
	)
}

func (s *Server) handleListSpaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, offset := page(request)
	list, err := s.client.ListSpaces(ctx, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) getSpaceMembersTool() mcp.Tool {
	return mcp.NewTool("get_space_members",
		mcp.WithDescription("List the members of a space"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of members to return")),
		mcp.WithNumber("offset", mcp.Description("Number of members to skip")),
	)
}

func (s *Server) handleGetSpaceMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListMembers(ctx, spaceID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

// --- Objects ---

func (s *Server) createObjectTool() mcp.Tool {
	return mcp.NewTool("create_object",
		mcp.WithDescription("Create a new object (note, task, page) in a space"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space the object belongs to")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the object")),
		mcp.WithString("type_key", mcp.Required(), mcp.Description("Type key, e.g. page or task")),
		mcp.WithString("body", mcp.Description("Markdown body of the object")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("template_id", mcp.Description("Template to create the object from")),
	)
}

func (s *Server) handleCreateObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeKey, err := request.RequireString("type_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.validator.Validate(ctx, []string{typeKey}, spaceID, ""); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	body, _ := args["body"].(string)
	description, _ := args["description"].(string)
	templateID, _ := args["template_id"].(string)

	object, err := s.client.CreateObject(ctx, spaceID, anytype.CreateObjectRequest{
		Name:        name,
		TypeKey:     typeKey,
		Body:        body,
		Description: description,
		TemplateID:  templateID,
	}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(object)
}

func (s *Server) getObjectTool() mcp.Tool {
	return mcp.NewTool("get_object",
		mcp.WithDescription("Get the full details of an object, including its content blocks"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id")),
	)
}

func (s *Server) handleGetObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectID, err := request.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	object, err := s.client.GetObject(ctx, spaceID, objectID, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(object)
}

func (s *Server) listObjectsTool() mcp.Tool {
	return mcp.NewTool("list_objects",
		mcp.WithDescription("List the objects of a space"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of objects to return")),
		mcp.WithNumber("offset", mcp.Description("Number of objects to skip")),
	)
}

func (s *Server) handleListObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListObjects(ctx, spaceID, nil, limit, offset, nil, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) deleteObjectTool() mcp.Tool {
	return mcp.NewTool("delete_object",
		mcp.WithDescription("Archive an object. The object is never physically removed"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id")),
	)
}

func (s *Server) handleDeleteObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectID, err := request.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	object, err := s.client.DeleteObject(ctx, spaceID, objectID, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(object)
}

// --- Search ---

func (s *Server) searchObjectsTool() mcp.Tool {
	return mcp.NewTool("search_objects",
		mcp.WithDescription("Search objects within a single space"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("query", mcp.Description("Search query, empty matches everything")),
		mcp.WithArray("types", mcp.Description("Restrict results to these type keys"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip")),
	)
}

func (s *Server) handleSearchObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, _ := request.GetArguments()["query"].(string)
	limit, offset := page(request)

	types := stringSlice(request, "types")
	if len(types) > 0 {
		if _, err := s.validator.Validate(ctx, types, spaceID, ""); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	list, err := s.client.SearchObjects(ctx, spaceID, anytype.SearchRequest{
		Query:  textutil.SanitizeQuery(query),
		Types:  types,
		Limit:  limit,
		Offset: offset,
	}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) globalSearchTool() mcp.Tool {
	return mcp.NewTool("global_search",
		mcp.WithDescription("Search objects across all spaces"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip")),
	)
}

func (s *Server) handleGlobalSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.GlobalSearch(ctx, anytype.SearchRequest{
		Query:  textutil.SanitizeQuery(query),
		Limit:  limit,
		Offset: offset,
	}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

// --- Export ---

func (s *Server) exportObjectTool() mcp.Tool {
	return mcp.NewTool("export_object",
		mcp.WithDescription("Export an object as markdown, html or pdf"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id")),
		mcp.WithString("format", mcp.Description("Export format: markdown, html or pdf. Defaults to markdown")),
	)
}

func (s *Server) handleExportObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectID, err := request.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := anytype.ExportFormatMarkdown
	if v, ok := request.GetArguments()["format"].(string); ok && v != "" {
		format = anytype.ExportFormat(v)
		if !format.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid export format %q, must be markdown, html or pdf", v)), nil
		}
	}

	content, err := s.client.ExportObject(ctx, spaceID, objectID, format, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

// --- Types and templates ---

func (s *Server) listTypesTool() mcp.Tool {
	return mcp.NewTool("list_types",
		mcp.WithDescription("List the object types of a space"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of types to return")),
		mcp.WithNumber("offset", mcp.Description("Number of types to skip")),
	)
}

func (s *Server) handleListTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListTypes(ctx, spaceID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) getTypeTool() mcp.Tool {
	return mcp.NewTool("get_type",
		mcp.WithDescription("Get a single object type"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("type_id", mcp.Required(), mcp.Description("Type id")),
	)
}

func (s *Server) handleGetType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeID, err := request.RequireString("type_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ, err := s.client.GetType(ctx, spaceID, typeID, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(typ)
}

func (s *Server) listTemplatesTool() mcp.Tool {
	return mcp.NewTool("list_templates",
		mcp.WithDescription("List the templates of an object type"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("type_id", mcp.Required(), mcp.Description("Type id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of templates to return")),
		mcp.WithNumber("offset", mcp.Description("Number of templates to skip")),
	)
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeID, err := request.RequireString("type_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListTemplates(ctx, spaceID, typeID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) getTemplateTool() mcp.Tool {
	return mcp.NewTool("get_template",
		mcp.WithDescription("Get a single template"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("type_id", mcp.Required(), mcp.Description("Type id")),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template id")),
	)
}

func (s *Server) handleGetTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typeID, err := request.RequireString("type_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	template, err := s.client.GetTemplate(ctx, spaceID, typeID, templateID, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(template)
}

// --- Tags ---

func (s *Server) listTagsTool() mcp.Tool {
	return mcp.NewTool("list_tags",
		mcp.WithDescription("List the tags of a select or multi-select property"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("property_id", mcp.Required(), mcp.Description("Property id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tags to return")),
		mcp.WithNumber("offset", mcp.Description("Number of tags to skip")),
	)
}

func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	propertyID, err := request.RequireString("property_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListTags(ctx, spaceID, propertyID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) createTagTool() mcp.Tool {
	return mcp.NewTool("create_tag",
		mcp.WithDescription("Create a tag on a select or multi-select property"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("property_id", mcp.Required(), mcp.Description("Property id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
		mcp.WithString("color", mcp.Description("Tag color")),
	)
}

func (s *Server) handleCreateTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	propertyID, err := request.RequireString("property_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color, _ := request.GetArguments()["color"].(string)

	tag, err := s.client.CreateTag(ctx, spaceID, propertyID, anytype.CreateTagRequest{
		Name:  name,
		Color: color,
	}, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tag)
}

// --- Lists ---

func (s *Server) getListViewsTool() mcp.Tool {
	return mcp.NewTool("get_list_views",
		mcp.WithDescription("List the saved views of a list (collection or query)"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List id")),
	)
}

func (s *Server) handleGetListViews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := request.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListViews(ctx, spaceID, listID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) getObjectsInListTool() mcp.Tool {
	return mcp.NewTool("get_objects_in_list",
		mcp.WithDescription("List the objects of a list as seen through one of its views"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List id")),
		mcp.WithString("view_id", mcp.Required(), mcp.Description("View id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of objects to return")),
		mcp.WithNumber("offset", mcp.Description("Number of objects to skip")),
	)
}

func (s *Server) handleGetObjectsInList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := request.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	viewID, err := request.RequireString("view_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, offset := page(request)

	list, err := s.client.ListObjectsInList(ctx, spaceID, listID, viewID, limit, offset, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(list)
}

func (s *Server) addObjectsToListTool() mcp.Tool {
	return mcp.NewTool("add_objects_to_list",
		mcp.WithDescription("Add objects to a list by id"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List id")),
		mcp.WithArray("object_ids", mcp.Required(), mcp.Description("Ids of the objects to add"),
			mcp.Items(map[string]any{"type": "string"})),
	)
}

func (s *Server) handleAddObjectsToList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := request.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectIDs := stringSlice(request, "object_ids")
	if len(objectIDs) == 0 {
		return mcp.NewToolResultError("object_ids is required"), nil
	}

	if err := s.client.AddObjectsToList(ctx, spaceID, listID, anytype.AddObjectsRequest{Objects: objectIDs}, ""); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added %d object(s) to list %s", len(objectIDs), listID)), nil
}

func (s *Server) removeObjectFromListTool() mcp.Tool {
	return mcp.NewTool("remove_object_from_list",
		mcp.WithDescription("Remove an object from a list. The object itself is untouched"),
		mcp.WithString("space_id", mcp.Required(), mcp.Description("Space id")),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("List id")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object id")),
	)
}

func (s *Server) handleRemoveObjectFromList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := request.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectID, err := request.RequireString("object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.client.RemoveObjectFromList(ctx, spaceID, listID, objectID, ""); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed object %s from list %s", objectID, listID)), nil
}
