package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"anybridge/internal/anytype"
	"anybridge/pkg/apierr"
)

// respondError maps an error onto the HTTP response. Validation
// failures are the caller's fault; everything else goes through the
// shared taxonomy mapping.
func respondError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	c.JSON(apierr.StatusCode(err), apierr.ToAPIError(err.Error()))
}

func token(c *gin.Context) string {
	return c.GetString("token")
}

// --- Auth ---

type challengeRequest struct {
	AppName string `json:"app_name"`
}

func (s *Server) createChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	if req.AppName == "" {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError("app_name is required"))
		return
	}

	id, err := s.client.StartChallenge(c.Request.Context(), req.AppName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, anytype.Challenge{ChallengeID: id})
}

type apiKeyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

func (s *Server) createAPIKey(c *gin.Context) {
	var req apiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	if req.ChallengeID == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError("challenge_id and code are required"))
		return
	}

	key, err := s.client.ExchangeChallenge(c.Request.Context(), req.ChallengeID, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, anytype.APIKey{Key: key})
}

// --- Spaces ---

func (s *Server) listSpaces(c *gin.Context) {
	list, err := s.client.ListSpaces(c.Request.Context(), c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createSpace(c *gin.Context) {
	var req anytype.CreateSpaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	space, err := s.client.CreateSpace(c.Request.Context(), req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, space)
}

func (s *Server) getSpace(c *gin.Context) {
	space, err := s.client.GetSpace(c.Request.Context(), c.Param("space_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, space)
}

func (s *Server) listMembers(c *gin.Context) {
	list, err := s.client.ListMembers(c.Request.Context(), c.Param("space_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getMember(c *gin.Context) {
	member, err := s.client.GetMember(c.Request.Context(), c.Param("space_id"), c.Param("member_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// --- Objects ---

func (s *Server) listObjects(c *gin.Context) {
	list, err := s.client.ListObjects(c.Request.Context(), c.Param("space_id"),
		nil, c.GetInt("limit"), c.GetInt("offset"), nil, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createObject(c *gin.Context) {
	var req anytype.CreateObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}

	spaceID := c.Param("space_id")
	if req.TypeKey != "" {
		if _, err := s.validator.Validate(c.Request.Context(), []string{req.TypeKey}, spaceID, token(c)); err != nil {
			respondError(c, err)
			return
		}
	}

	object, err := s.client.CreateObject(c.Request.Context(), spaceID, req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, object)
}

func (s *Server) getObject(c *gin.Context) {
	object, err := s.client.GetObject(c.Request.Context(), c.Param("space_id"), c.Param("object_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, object)
}

func (s *Server) deleteObject(c *gin.Context) {
	object, err := s.client.DeleteObject(c.Request.Context(), c.Param("space_id"), c.Param("object_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, object)
}

func (s *Server) exportObject(c *gin.Context) {
	format := anytype.ExportFormat(c.Param("format"))
	if !format.Valid() {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError("format must be one of markdown, html, pdf"))
		return
	}

	content, err := s.client.ExportObject(c.Request.Context(),
		c.Param("space_id"), c.Param("object_id"), format, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{string(format): content})
}

// --- Search ---

func (s *Server) searchObjects(c *gin.Context) {
	var req anytype.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	req.Limit = c.GetInt("limit")
	req.Offset = c.GetInt("offset")

	spaceID := c.Param("space_id")
	if len(req.Types) > 0 {
		if _, err := s.validator.Validate(c.Request.Context(), req.Types, spaceID, token(c)); err != nil {
			respondError(c, err)
			return
		}
	}

	list, err := s.client.SearchObjects(c.Request.Context(), spaceID, req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) globalSearch(c *gin.Context) {
	var req anytype.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	req.Limit = c.GetInt("limit")
	req.Offset = c.GetInt("offset")

	list, err := s.client.GlobalSearch(c.Request.Context(), req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Types and templates ---

func (s *Server) listTypes(c *gin.Context) {
	list, err := s.client.ListTypes(c.Request.Context(), c.Param("space_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getType(c *gin.Context) {
	typ, err := s.client.GetType(c.Request.Context(), c.Param("space_id"), c.Param("type_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, typ)
}

func (s *Server) listTemplates(c *gin.Context) {
	list, err := s.client.ListTemplates(c.Request.Context(), c.Param("space_id"), c.Param("type_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getTemplate(c *gin.Context) {
	template, err := s.client.GetTemplate(c.Request.Context(),
		c.Param("space_id"), c.Param("type_id"), c.Param("template_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// --- Tags ---

func (s *Server) listTags(c *gin.Context) {
	list, err := s.client.ListTags(c.Request.Context(), c.Param("space_id"), c.Param("property_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getTag(c *gin.Context) {
	tag, err := s.client.GetTag(c.Request.Context(),
		c.Param("space_id"), c.Param("property_id"), c.Param("tag_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (s *Server) createTag(c *gin.Context) {
	var req anytype.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	tag, err := s.client.CreateTag(c.Request.Context(),
		c.Param("space_id"), c.Param("property_id"), req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (s *Server) updateTag(c *gin.Context) {
	var req anytype.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	tag, err := s.client.UpdateTag(c.Request.Context(),
		c.Param("space_id"), c.Param("property_id"), c.Param("tag_id"), req, token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (s *Server) deleteTag(c *gin.Context) {
	tag, err := s.client.DeleteTag(c.Request.Context(),
		c.Param("space_id"), c.Param("property_id"), c.Param("tag_id"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

// --- Lists ---

func (s *Server) listViews(c *gin.Context) {
	list, err := s.client.ListViews(c.Request.Context(), c.Param("space_id"), c.Param("list_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) listObjectsInList(c *gin.Context) {
	list, err := s.client.ListObjectsInList(c.Request.Context(),
		c.Param("space_id"), c.Param("list_id"), c.Param("view_id"),
		c.GetInt("limit"), c.GetInt("offset"), token(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) addObjectsToList(c *gin.Context) {
	var req anytype.AddObjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.ToAPIError(err.Error()))
		return
	}
	if err := s.client.AddObjectsToList(c.Request.Context(),
		c.Param("space_id"), c.Param("list_id"), req, token(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) removeObjectFromList(c *gin.Context) {
	if err := s.client.RemoveObjectFromList(c.Request.Context(),
		c.Param("space_id"), c.Param("list_id"), c.Param("object_id"), token(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
