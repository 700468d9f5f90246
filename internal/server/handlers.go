package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arllen133/wikisvc/internal/store"
)

type createUserRequest struct {
	Name *string `json:"name"`
}

type userResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CreatedTime time.Time `json:"created_time"`
}

type createPostRequest struct {
	UserID  *int64  `json:"user_id"`
	Content *string `json:"content"`
}

// The create response names the id post_id; reads return it as id.
type postCreatedResponse struct {
	PostID      int64     `json:"post_id"`
	UserID      int64     `json:"user_id"`
	Content     string    `json:"content"`
	CreatedTime time.Time `json:"created_time"`
}

type postResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Content     string    `json:"content"`
	CreatedTime time.Time `json:"created_time"`
}

func userToResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, CreatedTime: u.CreatedAt}
}

func postToResponse(p *store.Post) postResponse {
	return postResponse{ID: p.ID, UserID: p.UserID, Content: p.Content, CreatedTime: p.CreatedAt}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// decodeBody rejects malformed bodies and wrong field types with a client
// error before anything reaches the store.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// storeError maps a store error onto a response, one-to-one, no retries.
func (s *Server) storeError(w http.ResponseWriter, err error, notFoundDetail string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundDetail)
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backing store unavailable")
	default:
		s.logger.Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := s.store.CreateUser(r.Context(), *req.Name)
	if err != nil {
		s.storeError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(user))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.storeError(w, err, "user not found")
		return
	}
	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userToResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == nil || req.Content == nil || *req.Content == "" {
		writeError(w, http.StatusBadRequest, "user_id and content are required")
		return
	}

	post, err := s.store.CreatePost(r.Context(), *req.UserID, *req.Content)
	if err != nil {
		s.storeError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, postCreatedResponse{
		PostID:      post.ID,
		UserID:      post.UserID,
		Content:     post.Content,
		CreatedTime: post.CreatedAt,
	})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, postToResponse(post))
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.storeError(w, err, "post not found")
		return
	}
	resp := make([]postResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, postToResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User and Post API",
		"endpoints": map[string]string{
			"POST /users":     "Create a new user",
			"GET /users":      "List users",
			"GET /users/{id}": "Get user by ID",
			"POST /posts":     "Create a new post",
			"GET /posts":      "List posts",
			"GET /posts/{id}": "Get post by ID",
			"GET /metrics":    "Prometheus metrics",
		},
	})
}
