package handlers

import (
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/services"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
	icons       storage.IconStore
}

func NewUserHandler(userService *services.UserService, icons storage.IconStore) *UserHandler {
	return &UserHandler{userService: userService, icons: icons}
}

// present rounds averages for display; stored values keep full precision.
func present(u *models.User) *models.User {
	out := *u
	out.Average = u.Average.Rounded()
	return &out
}

func (h *UserHandler) GetByAuth0ID(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.UserResponse{Error: services.ErrUserCreate.Error()})
	}

	user, err := h.userService.GetByAuth0ID(c.UserContext(), auth0ID)
	if err != nil {
		return c.JSON(dto.UserResponse{Error: fail(c, "user lookup by auth0 id failed", err)})
	}
	return c.JSON(dto.UserResponse{User: present(user)})
}

func (h *UserHandler) Signup(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.UserResponse{Error: services.ErrUserCreate.Error()})
	}

	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(dto.UserResponse{Error: services.ErrUserInputRequired.Error()})
	}

	user, err := h.userService.Signup(c.UserContext(), auth0ID, req.User)
	if err != nil {
		return c.JSON(dto.UserResponse{Error: fail(c, "signup failed", err)})
	}
	return c.JSON(dto.UserResponse{User: present(user)})
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.userService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.JSON(dto.UserResponse{Error: fail(c, "user lookup failed", err)})
	}
	return c.JSON(dto.UserResponse{User: present(user)})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.UserResponse{Error: services.ErrUserUpdate.Error()})
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(dto.UserResponse{Error: services.ErrUserInputRequired.Error()})
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), auth0ID, req.NewUser)
	if err != nil {
		return c.JSON(dto.UserResponse{Error: fail(c, "user update failed", err)})
	}
	return c.JSON(dto.UserResponse{User: present(user)})
}

func (h *UserHandler) UpdateEmail(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.UpdateEmailResponse{Error: services.ErrUserUpdateEmail.Error()})
	}

	var req dto.UpdateEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.JSON(dto.UpdateEmailResponse{Error: services.ErrUserUpdateEmail.Error()})
	}

	if err := h.userService.ChangeEmail(c.UserContext(), auth0ID, req.Email); err != nil {
		return c.JSON(dto.UpdateEmailResponse{Error: fail(c, "email update failed", err)})
	}
	return c.JSON(dto.UpdateEmailResponse{UpdateEmail: true})
}

// DeleteAuth0 cancels a half-finished sign-up by removing the Auth0 identity.
func (h *UserHandler) DeleteAuth0(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.DeleteAuth0UserResponse{Error: services.ErrUserDeleteAuth0.Error()})
	}

	if err := h.userService.CancelSignup(c.UserContext(), auth0ID); err != nil {
		return c.JSON(dto.DeleteAuth0UserResponse{Error: fail(c, "auth0 user delete failed", err)})
	}
	return c.JSON(dto.DeleteAuth0UserResponse{DeleteAuth0User: true})
}

// Delete withdraws the account: Auth0 identity first, then the local user.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.DeleteUserResponse{Error: services.ErrUserDelete.Error()})
	}

	if err := h.userService.Withdraw(c.UserContext(), auth0ID); err != nil {
		return c.JSON(dto.DeleteUserResponse{Error: fail(c, "user withdrawal failed", err)})
	}
	return c.JSON(dto.DeleteUserResponse{DeleteUser: true})
}

// UploadIcon stores the multipart "icon" file under the caller's prefix and
// returns its key for a later profile update.
func (h *UserHandler) UploadIcon(c *fiber.Ctx) error {
	auth0ID, ok := middleware.Auth0ID(c)
	if !ok {
		return c.JSON(dto.IconKeyResponse{Error: storage.ErrIconCreate.Error()})
	}

	icon, err := readIcon(c)
	if err != nil {
		return c.JSON(dto.IconKeyResponse{Error: fail(c, "icon read failed", err)})
	}
	if icon == nil {
		return c.JSON(dto.IconKeyResponse{Error: storage.ErrIconCreate.Error()})
	}

	key, err := h.icons.UploadIcon(c.UserContext(), *icon, storage.UserOwner(auth0ID))
	if err != nil {
		return c.JSON(dto.IconKeyResponse{Error: fail(c, "icon upload failed", err)})
	}
	return c.JSON(dto.IconKeyResponse{IconKey: &key})
}
