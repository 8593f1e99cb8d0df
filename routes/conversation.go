package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

type startConversationInput struct {
	SellerID  uint   `json:"sellerID" validate:"required"`
	ProductID uint   `json:"productID" validate:"required"`
	Message   string `json:"message"`
}

// StartConversation creates or reuses a direct buyer<->seller thread and
// sends a product card message as the opener.
func StartConversation(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var input startConversationInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.SellerID == user.ID {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"message": "Cannot start a conversation with yourself"})
		return
	}

	var product models.Product
	if err := storage.DB.First(&product, input.ProductID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	// Reuse the existing thread for this buyer/seller/product triple
	var conversation models.Conversation
	storage.DB.
		Where("buyer_id = ? AND seller_id = ? AND product_id = ?", user.ID, input.SellerID, input.ProductID).
		First(&conversation)

	if conversation.ID == 0 {
		productID := input.ProductID
		conversation = models.Conversation{BuyerID: user.ID, SellerID: input.SellerID, ProductID: &productID}
		if err := storage.DB.Create(&conversation).Error; err != nil {
			ctx.StopWithStatus(http.StatusInternalServerError)
			return
		}
	}

	previewImage := ""
	if product.Images != "" {
		var imgs []string
		if err := json.Unmarshal([]byte(product.Images), &imgs); err == nil && len(imgs) > 0 {
			previewImage = imgs[0]
		}
	}

	refID := product.ID
	msg := models.Message{
		ConversationID:  conversation.ID,
		SenderID:        user.ID,
		ReceiverID:      input.SellerID,
		Text:            input.Message,
		Type:            "product_card",
		RefType:         "product",
		RefID:           &refID,
		PreviewTitle:    product.Name,
		PreviewSubtitle: fmt.Sprintf("%.0f %s / %s", product.Price, product.Currency, product.Unit),
		PreviewImageURL: previewImage,
		State:           "sent",
	}
	if err := storage.DB.Create(&msg).Error; err != nil {
		ctx.StopWithStatus(http.StatusInternalServerError)
		return
	}

	ctx.JSON(iris.Map{"success": true, "conversationID": conversation.ID})
}

// GetConversationsByUserID lists threads where the user is buyer or seller.
func GetConversationsByUserID(ctx iris.Context) {
	params := ctx.Params()
	id := params.Get("id")

	var conversations []models.Conversation
	result := storage.DB.
		Preload("Buyer").
		Preload("Seller").
		Preload("Product").
		Where("buyer_id = ? OR seller_id = ?", id, id).
		Order("updated_at DESC").
		Find(&conversations)

	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(conversations)
}

func GetConversation(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	convID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var conversation models.Conversation
	result := storage.DB.
		Preload("Buyer").
		Preload("Seller").
		Preload("Product").
		Find(&conversation, convID)

	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if result.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	if conversation.BuyerID != user.ID && conversation.SellerID != user.ID {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	ctx.JSON(conversation)
}

// Typing indicator: set a short-lived key in Redis for 5 seconds
func Typing(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	convID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}
	if !isConversationMember(convID, user.ID) {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}
	key := typingKey(convID, user.ID)
	storage.Redis.Set(ctx, key, "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports which counterpart is typing in the thread.
func ListTyping(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	convID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var conversation models.Conversation
	if err := storage.DB.Preload("Buyer").Preload("Seller").First(&conversation, convID).Error; err != nil {
		ctx.StopWithStatus(http.StatusNotFound)
		return
	}
	if conversation.BuyerID != user.ID && conversation.SellerID != user.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	typing := []iris.Map{}
	for _, member := range []*models.User{conversation.Buyer, conversation.Seller} {
		if member == nil || member.ID == user.ID {
			continue
		}
		key := typingKey(convID, member.ID)
		if val, err := storage.Redis.Get(ctx, key).Result(); err == nil && val == "1" {
			typing = append(typing, iris.Map{
				"userID": member.ID,
				"name":   member.FirstName + " " + member.LastName,
			})
		}
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing})
}

func isConversationMember(convID uint, userID uint) bool {
	var conversation models.Conversation
	if err := storage.DB.First(&conversation, convID).Error; err != nil {
		return false
	}
	return conversation.BuyerID == userID || conversation.SellerID == userID
}

func typingKey(convID uint, userID uint) string {
	return fmt.Sprintf("typing:conv:%d:user:%d", convID, userID)
}
