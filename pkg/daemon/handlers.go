package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battlens/battlens/pkg/config"
	"github.com/battlens/battlens/pkg/session"
	"github.com/battlens/battlens/pkg/version"
)

func getConfig(c *gin.Context) {
	fc := config.NewRawFileConfigFromConfig(conf)
	c.IndentedJSON(http.StatusOK, fc)
}

func setRefreshInterval(c *gin.Context) {
	var seconds int
	if err := c.BindJSON(&seconds); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if seconds < 1 {
		err := fmt.Errorf("refresh interval must be at least 1 second, got %d", seconds)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetRefreshInterval(time.Duration(seconds) * time.Second)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set refresh interval to %ds", seconds)

	// The running session keeps its interval until restart; the new
	// value is picked up on the next daemon start. Say so.
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("refresh interval set to %ds, restart the daemon to apply", seconds))
}

func getSnapshot(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, sess.Current(c.Request.Context()))
}

func postRefresh(c *gin.Context) {
	c.IndentedJSON(http.StatusCreated, sess.Refresh(c.Request.Context()))
}

func getPercentage(c *gin.Context) {
	snap := sess.Current(c.Request.Context())
	if !snap.Percentage.Valid {
		c.IndentedJSON(http.StatusNotFound, "percentage unavailable")
		_ = c.AbortWithError(http.StatusNotFound, errors.New("percentage unavailable"))
		return
	}
	c.IndentedJSON(http.StatusOK, snap.Percentage.Value)
}

func getState(c *gin.Context) {
	snap := sess.Current(c.Request.Context())
	if !snap.State.Valid {
		c.IndentedJSON(http.StatusNotFound, "power state unavailable")
		_ = c.AbortWithError(http.StatusNotFound, errors.New("power state unavailable"))
		return
	}
	c.IndentedJSON(http.StatusOK, snap.State.Value.String())
}

func getPresent(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, sess.Current(c.Request.Context()).Present)
}

func getTimeRemaining(c *gin.Context) {
	d, err := sess.TimeRemaining(c.Request.Context())
	if err != nil {
		abortDerived(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, int64(d/time.Second))
}

func getWear(c *gin.Context) {
	wear, err := sess.WearPercentage(c.Request.Context())
	if err != nil {
		abortDerived(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, wear)
}

func getFastCharge(c *gin.Context) {
	fast, err := sess.IsFastCharge(c.Request.Context())
	if err != nil {
		abortDerived(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fast)
}

func getSources(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, sess.Current(c.Request.Context()).Sources)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// abortDerived maps a derived-metric failure onto the right status:
// missing inputs are a 404, anything else is a daemon fault.
func abortDerived(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, session.ErrDerivedUnavailable) {
		status = http.StatusNotFound
	} else {
		logrus.Errorf("derived metric failed: %v", err)
	}
	c.IndentedJSON(status, err.Error())
	_ = c.AbortWithError(status, err)
}
