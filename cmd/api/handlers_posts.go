package main

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/PaulBabatuyi/portfolio-api/internal/normalize"
	"github.com/PaulBabatuyi/portfolio-api/internal/posts"
)

// handleListPosts returns the published feed as seen by the optional
// sessionId query parameter.
func (s *Server) handleListPosts(c echo.Context) error {
	sessionID := normalize.Text(c.QueryParam("sessionId"))
	feed, err := s.posts.List(c.Request().Context(), sessionID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, posts.NewViews(feed, sessionID))
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var in posts.CreateInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.posts.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	s.metrics.PostInteractions.WithLabelValues("create").Inc()
	return respondData(c, http.StatusCreated, posts.NewView(p, ""))
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	var in posts.PatchInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.posts.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	s.metrics.PostInteractions.WithLabelValues("update").Inc()
	return respondData(c, http.StatusOK, posts.NewView(p, ""))
}

// handleDeletePost removes the post; media release failures are logged by
// the service and do not fail the request.
func (s *Server) handleDeletePost(c echo.Context) error {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.posts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	s.metrics.PostInteractions.WithLabelValues("delete").Inc()
	return respond(c, http.StatusOK, envelope{"message": "Post deleted successfully"})
}

func (s *Server) handleLikePost(c echo.Context) error {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	var in posts.LikeInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.posts.ToggleLike(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	action := "unlike"
	if in.IsLiking.Value {
		action = "like"
	}
	s.metrics.PostInteractions.WithLabelValues(action).Inc()
	return respondData(c, http.StatusOK, posts.NewView(p, normalize.Text(in.SessionID)))
}

func (s *Server) handleAddComment(c echo.Context) error {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	var in posts.CommentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, comment, err := s.posts.AddComment(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	s.metrics.PostInteractions.WithLabelValues("comment").Inc()
	return respondData(c, http.StatusCreated, envelope{
		"post":    posts.NewView(p, normalize.Text(in.SessionID)),
		"comment": posts.NewCommentView(*comment),
	})
}
