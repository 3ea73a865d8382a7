package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stylefit/services"
	"stylefit/utils"
)

// SessionController serves the wizard steps.
type SessionController struct {
	Sessions *services.SessionService
	Secret   []byte
	TokenTTL time.Duration
	// MaxPhotoBytes caps the photo part; zero leaves uploads unbounded.
	MaxPhotoBytes int64
}

// multipartSlack covers boundaries and part headers around the photo itself.
const multipartSlack = 64 << 10

func NewSessionController(svc *services.SessionService, secret []byte, ttl time.Duration, maxPhoto int64) *SessionController {
	return &SessionController{Sessions: svc, Secret: secret, TokenTTL: ttl, MaxPhotoBytes: maxPhoto}
}

func (sc *SessionController) photoTooLarge() error {
	return &utils.InputError{Field: "photo", Msg: fmt.Sprintf("photo must be at most %d bytes", sc.MaxPhotoBytes)}
}

func (sc *SessionController) Create(c *gin.Context) {
	st, err := sc.Sessions.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := utils.GenerateSessionToken(sc.Secret, st.Session.ID, sc.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "session": st.Session, "view": st.View})
}

func (sc *SessionController) Get(c *gin.Context) {
	st, err := sc.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (sc *SessionController) UploadPhoto(c *gin.Context) {
	if sc.MaxPhotoBytes > 0 {
		limit := sc.MaxPhotoBytes + multipartSlack
		if c.Request.ContentLength > limit {
			respondError(c, sc.photoTooLarge())
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, sc.photoTooLarge())
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required", "field": "photo"})
		return
	}
	if sc.MaxPhotoBytes > 0 && fh.Size > sc.MaxPhotoBytes {
		respondError(c, sc.photoTooLarge())
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data := make([]byte, fh.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		respondError(c, err)
		return
	}

	st, err := sc.Sessions.AttachPhoto(c.Request.Context(), c.Param("id"), fh.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Advance answers 200 either way; "advanced" is false when no photo was attached yet.
func (sc *SessionController) Advance(c *gin.Context) {
	st, ok, err := sc.Sessions.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advanced": ok, "session": st.Session, "view": st.View})
}

func (sc *SessionController) Back(c *gin.Context) {
	st, err := sc.Sessions.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type analyzeRequest struct {
	Height rawValue `json:"height" form:"height"`
	Weight rawValue `json:"weight" form:"weight"`
	Style  string   `json:"style" form:"style"`
}

// Analyze returns 202: results follow once the loading stages finish.
func (sc *SessionController) Analyze(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBind(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	st, err := sc.Sessions.Analyze(c.Request.Context(), c.Param("id"), string(body.Height), string(body.Weight), body.Style)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, st)
}

func (sc *SessionController) Restart(c *gin.Context) {
	st, err := sc.Sessions.Restart(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
