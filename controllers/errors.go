package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"breadit/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// errorCase 把业务错误映射为状态码和返回信息
type errorCase struct {
	err     error
	status  int
	message string
}

var defaultErrorCases = []errorCase{
	{services.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
	{services.ErrValidation, http.StatusUnprocessableEntity, "Invalid request data passed"},
	{services.ErrNotFound, http.StatusNotFound, "Not found"},
	{services.ErrConflict, http.StatusConflict, "Conflict"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
}

func respondError(ctx *gin.Context, err error, fallback string, cases ...errorCase) {
	_ = ctx.Error(err)
	for _, cs := range append(cases, defaultErrorCases...) {
		if errors.Is(err, cs.err) {
			ctx.JSON(cs.status, gin.H{"error": cs.message})
			return
		}
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// bindError 请求体解析失败统一返回 422
func bindError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
		}
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request data passed", "fields": strings.Join(fields, ",")})
		return
	}
	ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid request data passed"})
}
