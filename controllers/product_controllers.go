package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

type ProductController struct {
	Svc *services.ProductService
}

func NewProductController(svc *services.ProductService) *ProductController {
	return &ProductController{Svc: svc}
}

func (pc *ProductController) GetAllProducts(c *gin.Context) {
	products, err := pc.Svc.ListProducts()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	product, err := pc.Svc.GetProduct(c.Param("local_id"))
	if err != nil {
		utils.RespondError(c, productErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var body services.ProductInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	product, err := pc.Svc.CreateProduct(body)
	if err != nil {
		utils.RespondError(c, productErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var body services.ProductInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	product, err := pc.Svc.UpdateProduct(c.Param("local_id"), body)
	if err != nil {
		utils.RespondError(c, productErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.Svc.DeleteProduct(c.Param("local_id")); err != nil {
		utils.RespondError(c, productErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deleted", gin.H{"localId": c.Param("local_id")})
}

func productErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrComboCycle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
