package handler

import (
	"net/http"
	"strconv"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/database"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContactRequest defines the structure for contact creation/update requests.
// Pointer fields distinguish omitted fields from empty ones so partial
// updates leave untouched fields alone.
type ContactRequest struct {
	Email       *string `json:"email"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
}

// CreateContact creates a new contact
func CreateContact(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contact", "create")

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Email == nil || *req.Email == "" {
		log.Warn("Missing email in contact creation request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	// Omitted optional fields stay empty strings, never null
	contact := model.Contact{
		Email:       *req.Email,
		Country:     strValue(req.Country),
		City:        strValue(req.City),
		Street:      strValue(req.Street),
		HouseNumber: strValue(req.HouseNumber),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if result := database.GetDB().Create(&contact); result.Error != nil {
		log.Error("Failed to create contact", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contact"})
	}

	log.Info("Contact created",
		zap.Uint("id", contact.ID),
		zap.String("email", contact.Email))
	return c.JSON(http.StatusCreated, contact)
}

// ListContacts retrieves all contacts ordered by id
func ListContacts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contact", "list")

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contacts []model.Contact
	if result := database.GetDB().Order("id").Find(&contacts); result.Error != nil {
		log.Error("Failed to retrieve contacts", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contacts"})
	}

	return c.JSON(http.StatusOK, contacts)
}

// GetContact retrieves a contact by ID
func GetContact(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contact", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid contact ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contact model.Contact
	if result := database.GetDB().First(&contact, id); result.Error != nil {
		log.Warn("Contact not found", zap.Uint64("contact_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	return c.JSON(http.StatusOK, contact)
}

// UpdateContact updates an existing contact. Fields absent from the payload
// keep their stored values.
func UpdateContact(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contact", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid contact ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact ID"})
	}

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("contact_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	var contact model.Contact
	if result := database.GetDB().First(&contact, id); result.Error != nil {
		log.Warn("Contact not found for update", zap.Uint64("contact_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	if req.Email != nil {
		if *req.Email == "" {
			log.Warn("Empty email in contact update", zap.Uint64("contact_id", id))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
		}
		contact.Email = *req.Email
	}
	if req.Country != nil {
		contact.Country = *req.Country
	}
	if req.City != nil {
		contact.City = *req.City
	}
	if req.Street != nil {
		contact.Street = *req.Street
	}
	if req.HouseNumber != nil {
		contact.HouseNumber = *req.HouseNumber
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if result := database.GetDB().Save(&contact); result.Error != nil {
		log.Error("Failed to update contact", zap.Uint64("contact_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contact"})
	}

	log.Info("Contact updated", zap.Uint("id", contact.ID))
	return c.JSON(http.StatusOK, contact)
}

// DeleteContact removes a contact
func DeleteContact(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("contact", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid contact ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact ID"})
	}

	var contact model.Contact
	if result := database.GetDB().First(&contact, id); result.Error != nil {
		log.Warn("Contact not found for delete", zap.Uint64("contact_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if result := database.GetDB().Delete(&contact); result.Error != nil {
		log.Error("Failed to delete contact", zap.Uint64("contact_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contact"})
	}

	log.Info("Contact deleted", zap.Uint64("contact_id", id))
	return c.NoContent(http.StatusNoContent)
}

// strValue dereferences an optional string, defaulting to empty
func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
