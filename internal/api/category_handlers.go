package api

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"category-dashboard/internal/service"
)

// multipartOverhead leaves room for form fields next to the image itself.
const multipartOverhead = 1 << 20

type categoryJSON struct {
	Name      string          `json:"name"`
	ItemCount json.RawMessage `json:"itemCount"`
}

// categoryRequest is a parsed create or update body.
type categoryRequest struct {
	input  service.CategoryInput
	form   *multipart.Form
	file   multipart.File
	header *multipart.FileHeader
}

func (c *categoryRequest) close() {
	if c.file != nil {
		_ = c.file.Close()
	}
	if c.form != nil {
		_ = c.form.RemoveAll()
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	categories, err := s.categories.List(r.Context(), userID)
	if err != nil {
		s.writeServerError(w, r, "Server error while fetching categories", err)
		return
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	req, ok := s.readCategoryRequest(w, r)
	if !ok {
		return
	}
	defer req.close()

	valid, err := service.ValidateCategory(req.input)
	if verr, ok := service.IsValidation(err); ok {
		s.writeValidation(w, verr)
		return
	}

	image, ok := s.storeImage(w, r, req)
	if !ok {
		return
	}

	category, err := s.categories.Create(r.Context(), userID, valid, image)
	if err != nil {
		s.discardImage(image)
		s.writeServerError(w, r, "Server error while creating category", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, category)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, ok := s.categoryID(w, r)
	if !ok {
		return
	}

	req, ok := s.readCategoryRequest(w, r)
	if !ok {
		return
	}
	defer req.close()

	valid, err := service.ValidateCategory(req.input)
	if verr, ok := service.IsValidation(err); ok {
		s.writeValidation(w, verr)
		return
	}

	image, ok := s.storeImage(w, r, req)
	if !ok {
		return
	}
	var imagePtr *string
	if image != "" {
		imagePtr = &image
	}

	category, err := s.categories.Update(r.Context(), userID, id, valid, imagePtr)
	if err != nil {
		s.discardImage(image)
		s.writeServerError(w, r, "Server error while updating category", err)
		return
	}
	if category == nil {
		s.discardImage(image)
		s.writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, ok := s.categoryID(w, r)
	if !ok {
		return
	}

	deleted, err := s.categories.Delete(r.Context(), userID, id)
	if err != nil {
		s.writeServerError(w, r, "Server error while deleting category", err)
		return
	}
	if !deleted {
		s.writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}
	s.writeMessage(w, http.StatusOK, "Category deleted")
}

func (s *Server) categoryID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		s.writeMessage(w, http.StatusBadRequest, "Invalid category id")
		return 0, false
	}
	return uint(id), true
}

// readCategoryRequest accepts multipart forms (with an optional "image"
// file), urlencoded forms and JSON bodies.
func (s *Server) readCategoryRequest(w http.ResponseWriter, r *http.Request) (*categoryRequest, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, s.images.MaxBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(s.images.MaxBytes()); err != nil {
			s.rejectBody(w, err)
			return nil, false
		}
		req := &categoryRequest{input: formInput(r.MultipartForm.Value), form: r.MultipartForm}
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			req.file, req.header = file, header
		case !errors.Is(err, http.ErrMissingFile):
			s.rejectBody(w, err)
			return nil, false
		}
		return req, true

	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			s.rejectBody(w, err)
			return nil, false
		}
		return &categoryRequest{input: formInput(r.PostForm)}, true

	default:
		var body categoryJSON
		if !s.decodeJSON(w, r, &body) {
			return nil, false
		}
		return &categoryRequest{input: service.CategoryInput{Name: body.Name, ItemCount: rawItemCount(body.ItemCount)}}, true
	}
}

// rawItemCount passes numbers and strings through as text so validation
// reports a bad count as a field error. null counts as absent.
func rawItemCount(msg json.RawMessage) *string {
	if len(msg) == 0 || string(msg) == "null" {
		return nil
	}
	var text string
	if err := json.Unmarshal(msg, &text); err == nil {
		return &text
	}
	raw := string(msg)
	return &raw
}

func formInput(values map[string][]string) service.CategoryInput {
	input := service.CategoryInput{}
	if v := values["name"]; len(v) > 0 {
		input.Name = v[0]
	}
	if v := values["itemCount"]; len(v) > 0 {
		raw := v[0]
		input.ItemCount = &raw
	}
	return input
}

func (s *Server) rejectBody(w http.ResponseWriter, err error) {
	if isMaxBytes(err) {
		s.writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	s.writeMessage(w, http.StatusBadRequest, "Invalid request payload")
}

// storeImage saves the uploaded file, if any, and returns its public path.
func (s *Server) storeImage(w http.ResponseWriter, r *http.Request, req *categoryRequest) (string, bool) {
	if req.file == nil {
		return "", true
	}
	if req.header.Size > s.images.MaxBytes() {
		s.writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return "", false
	}

	image, err := s.images.Save(req.file, req.header.Filename, req.header.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, service.ErrUnsupportedImage):
		s.writeMessage(w, http.StatusBadRequest, "Only image files are allowed")
		return "", false
	case errors.Is(err, service.ErrImageTooLarge):
		s.writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return "", false
	case err != nil:
		s.writeServerError(w, r, "Server error while storing image", err)
		return "", false
	}
	return image, true
}

func (s *Server) discardImage(image string) {
	if image == "" {
		return
	}
	if err := s.images.Remove(image); err != nil {
		s.log.WithError(err).WithField("image", image).Warn("discard image")
	}
}
