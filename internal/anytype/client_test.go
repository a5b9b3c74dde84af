package anytype

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anybridge/pkg/apierr"
)

func TestClient_CreateSpace_SingularEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/spaces", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Work", body["name"])

		w.Write([]byte(`{"space": {"id": "sp1", "name": "Work"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	space, err := client.CreateSpace(context.Background(), CreateSpaceRequest{Name: "Work"}, "")
	require.NoError(t, err)
	assert.Equal(t, "sp1", space.ID)
	assert.Equal(t, "Work", space.Name)
}

func TestClient_CreateSpace_MissingName(t *testing.T) {
	client := New("http://unused", "key")
	_, err := client.CreateSpace(context.Background(), CreateSpaceRequest{}, "")
	assert.Error(t, err)
}

func TestClient_ListSpaces_Pagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		w.Write([]byte(`{
			"data": [{"id": "sp1", "name": "Work"}, {"id": "sp2", "name": "Home"}],
			"pagination": {"limit": 25, "offset": 50, "total": 120, "has_more": true}
		}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.ListSpaces(context.Background(), 25, 50, "")
	require.NoError(t, err)
	require.Len(t, list.Spaces, 2)
	assert.Equal(t, "sp2", list.Spaces[1].ID)
	assert.Equal(t, 120, list.Pagination.Total)
	assert.True(t, list.Pagination.HasMore)
}

func TestClient_SearchObjects_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/search", r.URL.Path)
		w.Write([]byte(`{"data": [], "pagination": {"limit": 50, "offset": 0, "total": 0}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.SearchObjects(context.Background(), "sp1", SearchRequest{Query: "nothing"}, "")
	require.NoError(t, err)
	assert.Empty(t, list.Objects)
	assert.Equal(t, 0, list.Pagination.Total)
}

func TestClient_SearchObjects_InvalidLimit(t *testing.T) {
	client := New("http://unused", "key")
	_, err := client.SearchObjects(context.Background(), "sp1", SearchRequest{Limit: 5000}, "")
	assert.Error(t, err)
}

func TestClient_ListObjects_DelegatesToSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/spaces/sp1/search", r.URL.Path)

		var body SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body.Query)
		assert.Equal(t, []string{"note"}, body.Types)

		w.Write([]byte(`{"data": [{"id": "ob1", "name": "Note"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.ListObjects(context.Background(), "sp1", []string{"note"}, 10, 0, nil, "")
	require.NoError(t, err)
	require.Len(t, list.Objects, 1)
	assert.Equal(t, "ob1", list.Objects[0].ID)
}

func TestClient_GlobalSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		w.Write([]byte(`{"data": [{"id": "ob1", "space_id": "sp1"}, {"id": "ob2", "space_id": "sp2"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.GlobalSearch(context.Background(), SearchRequest{Query: "report"}, "")
	require.NoError(t, err)
	require.Len(t, list.Objects, 2)
	assert.Equal(t, "sp2", list.Objects[1].SpaceID)
}

func TestClient_GetObject_TypedBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/objects/ob1", r.URL.Path)
		w.Write([]byte(`{"object": {
			"id": "ob1",
			"space_id": "sp1",
			"name": "Meeting notes",
			"details": {"internal": "dropped"},
			"blocks": [
				{"id": "b1", "text": {"text": "Agenda", "style": "Header1"}},
				{"id": "b2", "text": {"text": "item one", "checked": true}}
			]
		}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	obj, err := client.GetObject(context.Background(), "sp1", "ob1", "")
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", obj.Name)
	require.Len(t, obj.Blocks, 2)
	assert.Equal(t, "Agenda", obj.Blocks[0].Text.Text)
	assert.True(t, obj.Blocks[1].Text.Checked)
}

func TestClient_DeleteObject_ReturnsArchived(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"object": {"id": "ob1", "space_id": "sp1", "archived": true}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	obj, err := client.DeleteObject(context.Background(), "sp1", "ob1", "")
	require.NoError(t, err)
	assert.True(t, obj.Archived)
}

func TestClient_DeleteObject_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	obj, err := client.DeleteObject(context.Background(), "sp1", "ob1", "")
	require.NoError(t, err)
	assert.Equal(t, "ob1", obj.ID)
	assert.True(t, obj.Archived)
}

func TestClient_ExportObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/objects/ob1/export/markdown", r.URL.Path)
		w.Write([]byte(`{"markdown": "# Title\n\nbody"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	content, err := client.ExportObject(context.Background(), "sp1", "ob1", ExportFormatMarkdown, "")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody", content)
}

func TestClient_ExportObject_LegacyContentKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": "<h1>Title</h1>"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	content, err := client.ExportObject(context.Background(), "sp1", "ob1", ExportFormatHTML, "")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>", content)
}

func TestClient_ExportObject_InvalidFormat(t *testing.T) {
	client := New("http://unused", "key")
	_, err := client.ExportObject(context.Background(), "sp1", "ob1", ExportFormat("docx"), "")
	assert.Error(t, err)
}

func TestClient_ListTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/types", r.URL.Path)
		w.Write([]byte(`{"data": [
			{"id": "ty1", "key": "page", "name": "Page"},
			{"id": "ty2", "key": "task", "name": "Task"}
		]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.ListTypes(context.Background(), "sp1", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Types, 2)
	assert.Equal(t, "task", list.Types[1].Key)
}

func TestClient_ListTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/types/ty1/templates", r.URL.Path)
		w.Write([]byte(`{"data": [{"id": "tp1", "name": "Weekly review"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.ListTemplates(context.Background(), "sp1", "ty1", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Templates, 1)
	assert.Equal(t, "Weekly review", list.Templates[0].Name)
}

func TestClient_Tags_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/v1/spaces/sp1/properties/pr1/tags", r.URL.Path)
			w.Write([]byte(`{"tag": {"id": "tg1", "name": "urgent", "color": "red"}}`))
		case r.Method == http.MethodPatch:
			assert.Equal(t, "/v1/spaces/sp1/properties/pr1/tags/tg1", r.URL.Path)
			w.Write([]byte(`{"tag": {"id": "tg1", "name": "later", "color": "red"}}`))
		default:
			w.Write([]byte(`{"data": [{"id": "tg1", "name": "urgent"}]}`))
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	ctx := context.Background()

	created, err := client.CreateTag(ctx, "sp1", "pr1", CreateTagRequest{Name: "urgent", Color: "red"}, "")
	require.NoError(t, err)
	assert.Equal(t, "tg1", created.ID)

	name := "later"
	updated, err := client.UpdateTag(ctx, "sp1", "pr1", "tg1", UpdateTagRequest{Name: &name}, "")
	require.NoError(t, err)
	assert.Equal(t, "later", updated.Name)

	list, err := client.ListTags(ctx, "sp1", "pr1", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Tags, 1)
}

func TestClient_ListViews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/lists/ls1/views", r.URL.Path)
		w.Write([]byte(`{"views": [{"id": "vw1", "name": "All", "layout": "grid"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	list, err := client.ListViews(context.Background(), "sp1", "ls1", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Views, 1)
	assert.Equal(t, "grid", list.Views[0].Layout)
}

func TestClient_ListMembership(t *testing.T) {
	var gotAdd []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/v1/spaces/sp1/lists/ls1/objects", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotAdd))
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete:
			assert.Equal(t, "/v1/spaces/sp1/lists/ls1/objects/ob1", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			assert.Equal(t, "/v1/spaces/sp1/lists/ls1/views/vw1/objects", r.URL.Path)
			w.Write([]byte(`{"data": [{"id": "ob1"}]}`))
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	ctx := context.Background()

	err := client.AddObjectsToList(ctx, "sp1", "ls1", AddObjectsRequest{Objects: []string{"ob1", "ob2"}}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ob1", "ob2"}, gotAdd)

	list, err := client.ListObjectsInList(ctx, "sp1", "ls1", "vw1", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Objects, 1)

	require.NoError(t, client.RemoveObjectFromList(ctx, "sp1", "ls1", "ob1", ""))
}

func TestClient_ChallengeExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Both bootstrap calls go out without credentials.
		assert.Empty(t, r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/v1/auth/challenges":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "anybridge", body["app_name"])
			w.Write([]byte(`{"challenge_id": "ch1"}`))
		case "/v1/auth/api_keys":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ch1", body["challenge_id"])
			assert.Equal(t, "1234", body["code"])
			w.Write([]byte(`{"api_key": "minted-key"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	ctx := context.Background()

	id, err := client.StartChallenge(ctx, "anybridge")
	require.NoError(t, err)
	assert.Equal(t, "ch1", id)

	// Empty id falls back to the tracked challenge.
	key, err := client.ExchangeChallenge(ctx, "", "1234")
	require.NoError(t, err)
	assert.Equal(t, "minted-key", key)
}

func TestClient_ExchangeChallenge_NoChallenge(t *testing.T) {
	client := New("http://unused", "")
	_, err := client.ExchangeChallenge(context.Background(), "", "1234")
	assert.Error(t, err)
}

func TestClient_ValidateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	ctx := context.Background()

	ok, err := client.ValidateToken(ctx, "good")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ValidateToken(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_ValidateToken_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "storage unavailable"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.ValidateToken(context.Background(), "any")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apierr.ErrUnauthorized)
}

func TestClient_GetMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/spaces/sp1/members/m1", r.URL.Path)
		w.Write([]byte(`{"member": {"id": "m1", "name": "Ada", "role": "owner"}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "key")
	member, err := client.GetMember(context.Background(), "sp1", "m1", "")
	require.NoError(t, err)
	assert.Equal(t, MemberRoleOwner, member.Role)
}
