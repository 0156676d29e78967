package transport

import (
	"net/http"

	"shopie/internal/domain"
	"shopie/internal/middleware"
	"shopie/internal/repository"
	"shopie/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateUserRequest represents an admin-created account
type CreateUserRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=6"`
	FirstName string      `json:"firstName" validate:"omitempty,max=100"`
	LastName  string      `json:"lastName" validate:"omitempty,max=100"`
	Phone     string      `json:"phone" validate:"omitempty,max=30"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=CUSTOMER ADMIN"`
}

// UpdateUserRequest represents an admin's partial update of an account
type UpdateUserRequest struct {
	UpdateProfileRequest
	Password *string      `json:"password" validate:"omitempty,min=6"`
	Role     *domain.Role `json:"role" validate:"omitempty,oneof=CUSTOMER ADMIN"`
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=CUSTOMER ADMIN"`
}

// AdminUserHandler handles user administration. Every route requires an ADMIN token.
type AdminUserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewAdminUserHandler creates a new AdminUserHandler
func NewAdminUserHandler(userService service.UserService, logger *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all admin user routes
func (h *AdminUserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats/overview", h.Stats)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Patch("/{id}/role", h.UpdateRole)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles paginated user search
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	filter := repository.UserFilter{
		Search:      q.str("search"),
		Role:        domain.Role(q.str("role")),
		PageRequest: q.page(),
	}
	if q.err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, q.err)
		return
	}

	users, page, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithPaginated(w, "Users retrieved successfully", users, page)
}

// Stats handles the account summary
func (h *AdminUserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "User statistics retrieved successfully", stats)
}

// Get handles fetching one account
func (h *AdminUserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "User retrieved successfully", user)
}

// Create handles account creation with any role
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.CreateUser(r.Context(), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User created by admin", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	middleware.RespondWithData(w, http.StatusCreated, "User created successfully", user)
}

// Update handles partial account updates
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, service.UserUpdate{
		ProfileUpdate: req.toProfileUpdate(),
		Password:      req.Password,
		Role:          req.Role,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User updated by admin", zap.String("user_id", id.String()))
	middleware.RespondWithData(w, http.StatusOK, "User updated successfully", user)
}

// UpdateRole handles role changes
func (h *AdminUserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User role updated", zap.String("user_id", id.String()), zap.String("role", string(req.Role)))
	middleware.RespondWithData(w, http.StatusOK, "User role updated successfully", user)
}

// Delete removes another account
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), actorID, id); err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User deleted by admin", zap.String("user_id", id.String()), zap.String("actor_id", actorID.String()))
	middleware.RespondWithData(w, http.StatusOK, "User deleted successfully", nil)
}
