package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"retail-service/internal/model"
	"retail-service/pkg/database"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChainLinkRequest defines the structure for chain link creation/update
// requests. Contact and product sets use replace semantics: a supplied list
// becomes the exact membership, an omitted list is left alone.
type ChainLinkRequest struct {
	Name     *string  `json:"name"`
	Dept     *float64 `json:"dept"`
	Supplier *uint    `json:"supplier"`
	Contacts *[]uint  `json:"contacts"`
	Products *[]uint  `json:"products"`
}

// ChainLinkView is the wire representation of a chain link, with the
// relationship sets rendered as ordered id lists
type ChainLinkView struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Dept         float64   `json:"dept"`
	CreationDate time.Time `json:"creation_date"`
	Supplier     *uint     `json:"supplier"`
	Contacts     []uint    `json:"contacts"`
	Products     []uint    `json:"products"`
}

// CreateChainLink creates a new chain link with its relationship sets
func CreateChainLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "create")

	var req ChainLinkRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == nil || *req.Name == "" {
		log.Warn("Missing name in chain link creation request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	db := database.GetDB()

	if msg := validateChainRefs(db, &req); msg != "" {
		log.Warn("Invalid reference in chain link creation request", zap.String("detail", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	link := model.ChainLink{
		Name:       *req.Name,
		SupplierID: req.Supplier,
	}
	if req.Dept != nil {
		link.Dept = *req.Dept
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		if req.Contacts != nil {
			if err := replaceContactSet(tx, link.ID, *req.Contacts); err != nil {
				return err
			}
		}
		if req.Products != nil {
			if err := replaceProductSet(tx, link.ID, *req.Products); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to create chain link", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create chain link"})
	}

	log.Info("Chain link created",
		zap.Uint("id", link.ID),
		zap.String("name", link.Name))
	return c.JSON(http.StatusCreated, renderChainLink(db, link))
}

// ListChainLinks retrieves chain links ordered by id. An optional country
// query parameter keeps only links with at least one contact whose country
// matches case-insensitively.
func ListChainLinks(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "list")

	db := database.GetDB()
	query := db.Model(&model.ChainLink{}).Order("id")

	country := c.QueryParam("country")
	if country != "" {
		log.Info("Filtering chain links by contact country", zap.String("country", country))
		query = query.Where(
			"EXISTS (SELECT 1 FROM chain_link_contacts jc"+
				" JOIN contacts ct ON ct.id = jc.contact_id"+
				" WHERE jc.chain_link_id = chain_links.id AND LOWER(ct.country) = LOWER(?))",
			country,
		)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var links []model.ChainLink
	if result := query.Find(&links); result.Error != nil {
		log.Error("Failed to retrieve chain links", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve chain links"})
	}

	views := make([]ChainLinkView, 0, len(links))
	for _, link := range links {
		views = append(views, renderChainLink(db, link))
	}

	return c.JSON(http.StatusOK, views)
}

// GetChainLink retrieves a chain link by ID
func GetChainLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid chain link ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chain link ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	db := database.GetDB()
	var link model.ChainLink
	if result := db.First(&link, id); result.Error != nil {
		log.Warn("Chain link not found", zap.Uint64("chain_link_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "chain link not found"})
	}

	return c.JSON(http.StatusOK, renderChainLink(db, link))
}

// UpdateChainLink updates an existing chain link. The dept field is read-only
// at this endpoint: any submitted value is ignored and the stored balance
// keeps its prior value. Use the reset endpoint to clear debt.
func UpdateChainLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid chain link ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chain link ID"})
	}

	var req ChainLinkRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("chain_link_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	db := database.GetDB()

	var link model.ChainLink
	if result := db.First(&link, id); result.Error != nil {
		log.Warn("Chain link not found for update", zap.Uint64("chain_link_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "chain link not found"})
	}

	if req.Name != nil {
		if *req.Name == "" {
			log.Warn("Empty name in chain link update", zap.Uint64("chain_link_id", id))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
		}
		link.Name = *req.Name
	}
	if req.Dept != nil {
		log.Info("Ignoring dept value submitted to read-only endpoint",
			zap.Uint64("chain_link_id", id),
			zap.Float64("submitted_dept", *req.Dept))
	}

	if msg := validateChainRefs(db, &req); msg != "" {
		log.Warn("Invalid reference in chain link update", zap.String("detail", msg))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if req.Supplier != nil {
		link.SupplierID = req.Supplier
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&link).Error; err != nil {
			return err
		}
		if req.Contacts != nil {
			if err := replaceContactSet(tx, link.ID, *req.Contacts); err != nil {
				return err
			}
		}
		if req.Products != nil {
			if err := replaceProductSet(tx, link.ID, *req.Products); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update chain link", zap.Uint64("chain_link_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update chain link"})
	}

	log.Info("Chain link updated", zap.Uint("id", link.ID))
	return c.JSON(http.StatusOK, renderChainLink(db, link))
}

// DeleteChainLink removes a chain link. Links pointing at the deleted link as
// their supplier keep existing with the reference nulled.
func DeleteChainLink(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid chain link ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chain link ID"})
	}

	db := database.GetDB()

	var link model.ChainLink
	if result := db.First(&link, id); result.Error != nil {
		log.Warn("Chain link not found for delete", zap.Uint64("chain_link_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "chain link not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ChainLink{}).
			Where("supplier_id = ?", link.ID).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("chain_link_id = ?", link.ID).Delete(&model.ChainLinkContact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chain_link_id = ?", link.ID).Delete(&model.ChainLinkProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&link).Error
	})
	if err != nil {
		log.Error("Failed to delete chain link", zap.Uint64("chain_link_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete chain link"})
	}

	log.Info("Chain link deleted", zap.Uint64("chain_link_id", id))
	return c.NoContent(http.StatusNoContent)
}

// ResetDept clears the debt balance of every targeted chain link. Each record
// is updated independently; a missing id does not abort the rest.
func ResetDept(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("chain_link", "reset_dept")

	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if len(req.IDs) == 0 {
		log.Warn("Missing ids in debt reset request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids are required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	db := database.GetDB()
	var updated int64
	for _, id := range req.IDs {
		result := db.Model(&model.ChainLink{}).Where("id = ?", id).Update("dept", 0)
		if result.Error != nil {
			log.Error("Failed to reset debt", zap.Uint("chain_link_id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset debt"})
		}
		updated += result.RowsAffected
		prometheus.DeptResetCounter.Inc()
	}

	log.Info("Debt reset", zap.Int("requested", len(req.IDs)), zap.Int64("updated", updated))
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}

// validateChainRefs verifies every referenced supplier, contact and product
// exists, returning a validation message when one does not
func validateChainRefs(db *gorm.DB, req *ChainLinkRequest) string {
	if req.Supplier != nil {
		var count int64
		db.Model(&model.ChainLink{}).Where("id = ?", *req.Supplier).Count(&count)
		if count == 0 {
			return fmt.Sprintf("supplier %d does not exist", *req.Supplier)
		}
	}
	if req.Contacts != nil {
		if id, ok := missingID(db, &model.Contact{}, *req.Contacts); !ok {
			return fmt.Sprintf("contact %d does not exist", id)
		}
	}
	if req.Products != nil {
		if id, ok := missingID(db, &model.Product{}, *req.Products); !ok {
			return fmt.Sprintf("product %d does not exist", id)
		}
	}
	return ""
}

// missingID reports the first id in the list with no matching row
func missingID(db *gorm.DB, entity interface{}, ids []uint) (uint, bool) {
	for _, id := range ids {
		var count int64
		db.Model(entity).Where("id = ?", id).Count(&count)
		if count == 0 {
			return id, false
		}
	}
	return 0, true
}

// replaceContactSet sets the link's contact membership to exactly the given
// list, inserting junction rows in list order
func replaceContactSet(tx *gorm.DB, linkID uint, ids []uint) error {
	if err := tx.Where("chain_link_id = ?", linkID).Delete(&model.ChainLinkContact{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		row := model.ChainLinkContact{ChainLinkID: linkID, ContactID: id}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceProductSet sets the link's product membership to exactly the given list
func replaceProductSet(tx *gorm.DB, linkID uint, ids []uint) error {
	if err := tx.Where("chain_link_id = ?", linkID).Delete(&model.ChainLinkProduct{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		row := model.ChainLinkProduct{ChainLinkID: linkID, ProductID: id}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// renderChainLink loads the relationship id lists in assignment order
func renderChainLink(db *gorm.DB, link model.ChainLink) ChainLinkView {
	view := ChainLinkView{
		ID:           link.ID,
		Name:         link.Name,
		Dept:         link.Dept,
		CreationDate: link.CreationDate,
		Supplier:     link.SupplierID,
		Contacts:     []uint{},
		Products:     []uint{},
	}

	var contactRows []model.ChainLinkContact
	db.Where("chain_link_id = ?", link.ID).Order("id").Find(&contactRows)
	for _, row := range contactRows {
		view.Contacts = append(view.Contacts, row.ContactID)
	}

	var productRows []model.ChainLinkProduct
	db.Where("chain_link_id = ?", link.ID).Order("id").Find(&productRows)
	for _, row := range productRows {
		view.Products = append(view.Products, row.ProductID)
	}

	return view
}
