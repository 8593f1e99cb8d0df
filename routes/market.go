package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
)

// GetMarketPrices lists reference prices, optionally filtered by crop and region.
func GetMarketPrices(ctx iris.Context) {
	q := storage.DB.Model(&models.MarketPrice{})

	if crop := strings.TrimSpace(ctx.URLParam("crop")); crop != "" {
		q = q.Where("LOWER(crop) = LOWER(?)", crop)
	}
	if region := strings.TrimSpace(ctx.URLParam("region")); region != "" {
		q = q.Where("LOWER(region) = LOWER(?)", region)
	}

	var prices []models.MarketPrice
	if err := q.Order("crop ASC").Order("region ASC").Find(&prices).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to load market prices"})
		return
	}

	ctx.JSON(iris.Map{"prices": prices, "asOf": time.Now().Format("2006-01-02")})
}

// GetPriceComparison compares a seller's asking price against the regional
// reference price for the same crop. Falls back to the crop's average across
// all regions when no row exists for the requested region.
func GetPriceComparison(ctx iris.Context) {
	crop := strings.TrimSpace(ctx.URLParam("crop"))
	region := strings.TrimSpace(ctx.URLParam("region"))
	askingPrice, priceErr := ctx.URLParamFloat64("price")

	if crop == "" || priceErr != nil || askingPrice <= 0 {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "crop and a positive price are required"})
		return
	}

	var reference models.MarketPrice
	found := false

	if region != "" {
		result := storage.DB.
			Where("LOWER(crop) = LOWER(?) AND LOWER(region) = LOWER(?)", crop, region).
			Limit(1).Find(&reference)
		if result.Error != nil {
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{"message": "Failed to load market price"})
			return
		}
		found = result.RowsAffected > 0
	}

	scope := "region"
	if !found {
		// Average over every region that carries this crop
		type avgRow struct {
			AvgPrice float64
			Count    int64
			Unit     string
			Currency string
		}
		var row avgRow
		result := storage.DB.Model(&models.MarketPrice{}).
			Select("AVG(base_price) as avg_price, COUNT(*) as count, MIN(unit) as unit, MIN(currency) as currency").
			Where("LOWER(crop) = LOWER(?)", crop).
			Scan(&row)
		if result.Error != nil {
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{"message": "Failed to load market price"})
			return
		}
		if row.Count == 0 {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{"message": "No market price data for this crop"})
			return
		}
		reference = models.MarketPrice{
			Crop:      crop,
			Region:    "all",
			Unit:      row.Unit,
			BasePrice: float32(row.AvgPrice),
			Currency:  row.Currency,
		}
		scope = "national"
	}

	marketPrice := float64(reference.BasePrice)
	difference := askingPrice - marketPrice
	percent := 0.0
	if marketPrice > 0 {
		percent = difference / marketPrice * 100
	}

	position := "fair"
	if percent > 10 {
		position = "above_market"
	} else if percent < -10 {
		position = "below_market"
	}

	ctx.JSON(iris.Map{
		"crop":         reference.Crop,
		"region":       reference.Region,
		"scope":        scope,
		"unit":         reference.Unit,
		"currency":     reference.Currency,
		"marketPrice":  marketPrice,
		"askingPrice":  askingPrice,
		"difference":   difference,
		"percentDelta": percent,
		"position":     position,
	})
}
