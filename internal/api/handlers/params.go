package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// intQuery reads an integer query parameter. Blank means absent.
func intQuery(c *gin.Context, name string) (int, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, utils.NewValidationError(fmt.Sprintf("%s must be an integer", name), fmt.Sprintf("got %q", raw))
	}
	return v, true, nil
}

func seasonQuery(c *gin.Context, current int) (int, error) {
	season, ok, err := intQuery(c, "season")
	if err != nil || !ok {
		return current, err
	}
	return season, nil
}

func weekQuery(c *gin.Context) (*int, error) {
	week, ok, err := intQuery(c, "week")
	if err != nil || !ok {
		return nil, err
	}
	return &week, nil
}

func topNQuery(c *gin.Context, defaultTopN, maxTopN int) (int, error) {
	topN, ok, err := intQuery(c, "top_n")
	if err != nil {
		return 0, err
	}
	if !ok {
		return defaultTopN, nil
	}
	if topN <= 0 || topN > maxTopN {
		return 0, utils.NewValidationError("top_n out of range", fmt.Sprintf("got %d, expected 1-%d", topN, maxTopN))
	}
	return topN, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, utils.NewValidationError(fmt.Sprintf("%s must be an integer", name), fmt.Sprintf("got %q", raw))
	}
	return v, nil
}

func weekLabel(week *int) string {
	if week == nil {
		return "all"
	}
	return strconv.Itoa(*week)
}
