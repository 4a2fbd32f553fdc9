package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todolist/internal/service"
	"github.com/Tomlord1122/todolist/internal/validation"
)

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todoService.ListTodos(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), callerFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/Todos/"+todo.ID)
	respondWithJSON(w, http.StatusCreated, todo)
}

func (s *Server) completeTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SetCompletionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	todo, err := s.todoService.SetCompletion(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), *req.Completed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) cancelTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SetCancellationRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	todo, err := s.todoService.SetCancellation(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"), *req.Cancelled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	err := s.todoService.DeleteTodo(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			respondWithValidation(w, verr)
			return false
		}
		writeServiceError(w, r, err)
		return false
	}
	return true
}
