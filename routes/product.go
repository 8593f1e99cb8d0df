package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func CreateProduct(ctx iris.Context) {
	claims := jwt.Get(ctx).(*utils.AccessToken)

	var input CreateProductInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	imagesArr := insertProductImages(input.Images, "")
	if imagesArr == nil {
		imagesArr = []string{}
	}
	imagesJSON, _ := json.Marshal(imagesArr)

	currency := input.Currency
	if currency == "" {
		currency = "MMK"
	}

	product := models.Product{
		SellerID:    claims.ID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Unit:        input.Unit,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Currency:    currency,
		Region:      input.Region,
		Township:    input.Township,
		Images:      string(imagesJSON),
		IsActive:    input.IsActive,
		Status:      "active",
	}

	result := storage.DB.Create(&product)
	if result.Error != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "Failed to create product"})
		return
	}

	ctx.JSON(product)
}

func GetProduct(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	product := getProductWithSellerByID(id, ctx)
	if product == nil {
		return
	}

	ctx.JSON(product)
}

func GetProductsByUserID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var products []models.Product
	productsExist := storage.DB.Where("seller_id = ?", id).Order("created_at DESC").Find(&products)

	if productsExist.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", productsExist.Error.Error(), ctx)
		return
	}

	ctx.JSON(products)
}

func DeleteProduct(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var product models.Product
	productExists := storage.DB.Find(&product, id)

	if productExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	if product.SellerID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	productDeleted := storage.DB.Delete(&models.Product{}, id)

	if productDeleted.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", productDeleted.Error.Error(), ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func UpdateProduct(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	product := getProductWithSellerByID(id, ctx)
	if product == nil {
		return
	}

	claims := jwt.Get(ctx).(*utils.AccessToken)

	if product.SellerID != claims.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	var input UpdateProductInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	imagesArr := insertProductImages(input.Images, strconv.FormatUint(uint64(product.ID), 10))
	imagesJSON, _ := json.Marshal(imagesArr)

	product.Name = input.Name
	product.Description = input.Description
	product.Category = input.Category
	product.Unit = input.Unit
	product.Price = input.Price
	product.Quantity = input.Quantity
	product.Currency = input.Currency
	product.Region = input.Region
	product.Township = input.Township
	product.Images = string(imagesJSON)
	product.IsActive = input.IsActive

	rowsUpdated := storage.DB.Model(&product).Updates(product)

	if rowsUpdated.Error != nil {
		utils.CreateError(
			iris.StatusInternalServerError,
			"Error", rowsUpdated.Error.Error(), ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func getProductWithSellerByID(id string, ctx iris.Context) *models.Product {
	var product models.Product
	productExists := storage.DB.Preload("Seller").Find(&product, id)

	if productExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if productExists.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return nil
	}

	return &product
}

func insertProductImages(images []string, productID string) []string {
	var imagesArr []string
	for i, image := range images {
		if image == "" {
			continue
		}
		if storage.IsHostedURL(image) {
			imagesArr = append(imagesArr, image)
			continue
		}

		timestamp := time.Now().UnixNano() / int64(time.Millisecond)
		publicID := fmt.Sprintf("product_%d_%d", timestamp, i)
		if productID != "" {
			publicID = "product/" + productID + "/" + publicID
		}

		urlMap := storage.UploadBase64Image(image, publicID)
		if urlMap != nil && urlMap["url"] != "" {
			imagesArr = append(imagesArr, urlMap["url"])
		} else {
			fmt.Printf("Failed to upload image with publicID: %s\n", publicID)
		}
	}
	return imagesArr
}

// DeleteProductImage removes a single image from a product listing.
func DeleteProductImage(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	productIDStr := ctx.URLParam("productID")
	imageURL := ctx.URLParam("imageURL")

	if productIDStr == "" || imageURL == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"message": "productID and imageURL are required",
		})
		return
	}

	productID, err := strconv.ParseUint(productIDStr, 10, 32)
	if err != nil {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"message": "Invalid productID",
		})
		return
	}

	var product models.Product
	if err := storage.DB.Where("id = ? AND seller_id = ?", productID, userID).First(&product).Error; err != nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{
			"message": "Product not found or not owned by user",
		})
		return
	}

	var images []string
	if product.Images != "" {
		if err := json.Unmarshal([]byte(product.Images), &images); err != nil {
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"message": "Failed to parse product images",
			})
			return
		}
	}

	imageIndex := -1
	for i, img := range images {
		if img == imageURL {
			imageIndex = i
			break
		}
	}

	if imageIndex == -1 {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{
			"message": "Image not found in product",
		})
		return
	}

	images = append(images[:imageIndex], images[imageIndex+1:]...)

	imagesJSON, _ := json.Marshal(images)
	product.Images = string(imagesJSON)

	if err := storage.DB.Save(&product).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{
			"message": "Failed to update product",
		})
		return
	}

	if storage.DeleteImage(imageURL) {
		ctx.JSON(iris.Map{
			"message": "Image deleted successfully",
			"success": true,
		})
	} else {
		// Removed from the listing even if remote deletion failed
		ctx.JSON(iris.Map{
			"message": "Image removed from product (remote deletion may have failed)",
			"success": true,
		})
	}
}

type CreateProductInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required,oneof=rice pulses vegetables fruits spices livestock other"`
	Unit        string   `json:"unit" validate:"required,oneof=kg viss basket bag ton"`
	Price       float32  `json:"price" validate:"required,gte=0"`
	Quantity    int      `json:"quantity" validate:"required,gte=1"`
	Currency    string   `json:"currency"`
	Region      string   `json:"region" validate:"required,max=100"`
	Township    string   `json:"township" validate:"max=100"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"isActive"`
}

type UpdateProductInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required,oneof=rice pulses vegetables fruits spices livestock other"`
	Unit        string   `json:"unit" validate:"required,oneof=kg viss basket bag ton"`
	Price       float32  `json:"price" validate:"required,gte=0"`
	Quantity    int      `json:"quantity" validate:"required,gte=1"`
	Currency    string   `json:"currency" validate:"required"`
	Region      string   `json:"region" validate:"required,max=100"`
	Township    string   `json:"township" validate:"max=100"`
	Images      []string `json:"images"`
	IsActive    *bool    `json:"isActive"`
}
