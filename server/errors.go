package server

import (
	"net/http"

	"betledger/domain/ledgererr"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// reasonBadRequest labels malformed requests rejected before reaching the ledger
const reasonBadRequest = "BadRequest"

var kindStatus = map[ledgererr.Kind]int{
	ledgererr.KindValidation:    http.StatusBadRequest,
	ledgererr.KindNotFound:      http.StatusNotFound,
	ledgererr.KindStateConflict: http.StatusConflict,
	ledgererr.KindAuthorization: http.StatusForbidden,
	ledgererr.KindTransfer:      http.StatusPaymentRequired,
}

// StatusFor maps a ledger error to its HTTP status
func StatusFor(err error) int {
	if status, ok := kindStatus[ledgererr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	reason := string(ledgererr.ReasonOf(err))

	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal", "message": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": reason, "message": err.Error()})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": reasonBadRequest, "message": message})
}
