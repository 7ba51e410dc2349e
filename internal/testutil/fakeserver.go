package testutil

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

const userKey = "user"

// NewFakeHandler serves the REST task store API over store. Every route
// except login and register requires a bearer token issued by store.
// Errors are reported as {"error": "..."} with a matching status code.
func NewFakeHandler(store *FakeStore) http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	users := r.Group("/api/users")
	users.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		creds, err := store.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, creds)
	})
	users.POST("/register", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		creds, err := store.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, creds)
	})

	authed := users.Group("", bearer(store))
	authed.GET("/me", func(c *gin.Context) {
		store.record("me")
		if store.MeErr != nil {
			writeError(c, store.MeErr)
			return
		}
		c.JSON(http.StatusOK, c.MustGet(userKey))
	})
	authed.POST("/logout", func(c *gin.Context) {
		if err := store.Logout(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tasks := r.Group("/api/tasks", bearer(store))
	tasks.GET("", func(c *gin.Context) {
		list, err := store.ListTasks(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})
	tasks.POST("", func(c *gin.Context) {
		var draft service.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		task, err := store.CreateTask(c.Request.Context(), draft)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)
	})
	tasks.POST("/reorder", func(c *gin.Context) {
		var req struct {
			Tasks []service.OrderEntry `json:"tasks"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := store.ReorderTasks(c.Request.Context(), req.Tasks); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered"})
	})
	tasks.PATCH("/:id", func(c *gin.Context) {
		var patch service.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		task, err := store.UpdateTask(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	})
	tasks.DELETE("/:id", func(c *gin.Context) {
		if err := store.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Task removed"})
	})

	return r
}

func bearer(store *FakeStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token, authorization denied"})
			return
		}
		user, ok := store.MeByToken(strings.TrimSpace(parts[1]))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	var apiErr *service.APIError
	switch {
	case errors.As(err, &apiErr):
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
