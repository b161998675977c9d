package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Plain-text replies of the form endpoints. The page script only checks the
// status code.
const (
	replyOK         = "OK"
	replyBadRequest = "Bad Request"
)

// GET /
func (s *Server) index(c *gin.Context) {
	ctrl := s.lm.Controller()

	page, err := s.renderer.Render(ctrl.Snapshot(), s.lm.DeviceName(), c.Request.Host)
	if err != nil {
		s.logger.Error("Failed to render control page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctrl.RecordActivity()
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// GET|POST /save
// Fields: mode, lang, sb (sensor max brightness), inv (checkbox). Absent
// fields stay unchanged except inv: an unchecked box is not submitted, so
// its absence means false.
func (s *Server) saveForm(c *gin.Context) {
	var u settings.Update

	if v, ok := formValue(c, "mode"); ok {
		mode, err := settings.ParseMode(v)
		if err != nil {
			c.String(http.StatusBadRequest, replyBadRequest)
			return
		}
		u.Mode = &mode
	}

	if v, ok := formValue(c, "lang"); ok {
		lang, err := settings.ParseLanguage(v)
		if err != nil {
			c.String(http.StatusBadRequest, replyBadRequest)
			return
		}
		u.Language = &lang
	}

	if v, ok := formValue(c, "sb"); ok {
		sb, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			c.String(http.StatusBadRequest, replyBadRequest)
			return
		}
		u.SensorMaxBrightness = &sb
	}

	_, invert := formValue(c, "inv")
	u.InvertLogic = &invert

	if _, err := s.lm.Controller().UpdateConfiguration(c.Request.Context(), u); err != nil {
		s.logger.Error("Failed to save configuration from form", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// GET /set?val=n
// The value is stored in every mode; it only drives the output in manual
// mode.
func (s *Server) setLegacyBrightness(c *gin.Context) {
	raw, ok := c.GetQuery("val")
	if !ok {
		c.String(http.StatusBadRequest, replyBadRequest)
		return
	}

	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		c.String(http.StatusBadRequest, replyBadRequest)
		return
	}

	s.lm.Controller().SetCommandedBrightness(val)
	c.String(http.StatusOK, replyOK)
}

func formValue(c *gin.Context, key string) (string, bool) {
	if v, ok := c.GetPostForm(key); ok {
		return v, true
	}
	return c.GetQuery(key)
}
