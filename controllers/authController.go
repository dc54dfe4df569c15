package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	maxAvatarSize = 2 << 20

	// Standard response messages
	msgInvalidInput          = "invalid input"
	msgUserAlreadyExists     = "user already exists"
	msgFailedToHashPassword  = "failed to hash password"
	msgInvalidCredentials    = "Invalid credentials"
	msgCredentialsRequired   = "Username and password required"
	msgFailedToGenerateToken = "failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgWrongPassword         = "current password is incorrect"
	msgEmailTaken            = "this email is already in use"
	msgPhoneTaken            = "this phone is already in use"
	msgNoAvatar              = "No avatar provided"
	msgAvatarTooLarge        = "File size too large"
	msgUploadsDisabled       = "file uploads are not configured"
	msgValidationFailed      = "validation failed"
	msgNotFound              = "Not found"
	msgInvalidID             = "Invalid ID"
	msgAccessDenied          = "Access denied"
	msgNoBasket              = "No basket found"
	msgEmptyBasket           = "Basket is empty"
	msgAlreadyPaid           = "Order is already paid"
)

const defaultAvatar = "/static/frontend/assets/img/user_icon.png"

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"error": message})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func checkUserExists(username string) (bool, error) {
	var count int64
	err := initializers.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", username, username).
		Count(&count).Error
	return count > 0, err
}

func currentUser(ctx *gin.Context) (models.User, bool) {
	var user models.User
	caller := middlewares.CallerFrom(ctx)
	if err := initializers.DB.First(&user, caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusUnauthorized, "Authentication required")
		} else {
			log.Println("Profile lookup error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		}
		return user, false
	}
	return user, true
}

func profileResponse(user models.User) gin.H {
	avatar := user.Avatar
	if avatar == "" {
		avatar = defaultAvatar
	}
	return gin.H{
		"fullName": user.FullName,
		"email":    user.Email,
		"phone":    user.Phone,
		"avatar":   gin.H{"src": avatar, "alt": "Avatar"},
	}
}

// issueToken signs a token for the user and stores it in the token cookie as well.
func issueToken(ctx *gin.Context, user models.User) {
	tokenString, err := utils.GenerateJWT(user)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.TokenCookie, tokenString, int(utils.TokenLifetime.Seconds()), "/", "", false, true)
	sendJSONResponse(ctx, http.StatusOK, gin.H{"token": tokenString})
}

type credentials struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// readCredentials takes the fields from the query string first and the body second.
func readCredentials(ctx *gin.Context) credentials {
	var body credentials
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBind(&body); err != nil {
			log.Println("Credentials bind error:", err)
		}
	}
	pick := func(key, fallback string) string {
		if v := strings.TrimSpace(ctx.Query(key)); v != "" {
			return v
		}
		return strings.TrimSpace(fallback)
	}
	return credentials{
		Name:     pick("name", body.Name),
		Username: pick("username", body.Username),
		Password: pick("password", body.Password),
	}
}

// SignUp registers a user and signs them in.
func SignUp(ctx *gin.Context) {
	signUpData := readCredentials(ctx)
	fields := utils.ValidateStruct(struct {
		Username string `json:"username" validate:"required,max=150"`
		Password string `json:"password" validate:"required,min=8"`
	}{signUpData.Username, signUpData.Password})
	if len(fields) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": fields})
		return
	}

	exists, err := checkUserExists(signUpData.Username)
	if err != nil {
		log.Println("Database error during user check:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}
	if exists {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
		return
	}

	hashedPassword, err := hashPassword(signUpData.Password)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	user := models.User{
		Username: signUpData.Username,
		FullName: signUpData.Name,
		Email:    signUpData.Username,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}
	if result := initializers.DB.Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.Println("User creation error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	issueToken(ctx, user)
}

func SignIn(ctx *gin.Context) {
	loginData := readCredentials(ctx)
	if loginData.Username == "" || loginData.Password == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	var user models.User
	if err := initializers.DB.Where("username = ?", loginData.Username).First(&user).Error; err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}
	if err := comparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	issueToken(ctx, user)
}

func SignOut(ctx *gin.Context) {
	ctx.SetCookie(middlewares.TokenCookie, "", -1, "/", "", false, true)
	ctx.Status(http.StatusOK)
}

func GetProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	sendJSONResponse(ctx, http.StatusOK, profileResponse(user))
}

func UpdateProfile(ctx *gin.Context) {
	var profileData struct {
		FullName *string `json:"fullName" validate:"omitempty,max=100"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Phone    *string `json:"phone" validate:"omitempty,max=20"`
	}
	if err := utils.BindAndValidate(ctx, &profileData); err != nil {
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	fields := map[string]string{}
	taken := func(column, value string) bool {
		var count int64
		initializers.DB.Model(&models.User{}).Where(column+" = ? AND id <> ?", value, user.ID).Count(&count)
		return count > 0
	}
	if profileData.Email != nil && *profileData.Email != "" && taken("email", *profileData.Email) {
		fields["email"] = msgEmailTaken
	}
	if profileData.Phone != nil && *profileData.Phone != "" && taken("phone", *profileData.Phone) {
		fields["phone"] = msgPhoneTaken
	}
	if len(fields) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": fields})
		return
	}

	if profileData.FullName != nil {
		user.FullName = *profileData.FullName
	}
	if profileData.Email != nil {
		user.Email = *profileData.Email
	}
	if profileData.Phone != nil {
		user.Phone = *profileData.Phone
	}
	if err := initializers.DB.Model(&user).Select("FullName", "Email", "Phone").Updates(&user).Error; err != nil {
		log.Println("Profile update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, profileResponse(user))
}

func ChangePassword(ctx *gin.Context) {
	var passwordData struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
	if err := utils.BindAndValidate(ctx, &passwordData); err != nil {
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	if err := comparePasswords(user.Password, passwordData.CurrentPassword); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": gin.H{"currentPassword": msgWrongPassword}})
		return
	}

	hashedPassword, err := hashPassword(passwordData.NewPassword)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}
	if err := initializers.DB.Model(&user).Update("password", hashedPassword).Error; err != nil {
		log.Println("Password update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}
	ctx.Status(http.StatusOK)
}

func UploadAvatar(ctx *gin.Context) {
	file, err := ctx.FormFile("avatar")
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgNoAvatar)
		return
	}
	if file.Size > maxAvatarSize {
		sendErrorResponse(ctx, http.StatusBadRequest, msgAvatarTooLarge)
		return
	}
	if initializers.Uploader == nil {
		sendErrorResponse(ctx, http.StatusServiceUnavailable, msgUploadsDisabled)
		return
	}

	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	f, err := file.Open()
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgNoAvatar)
		return
	}
	defer f.Close()

	location, err := initializers.Uploader.Upload(ctx.Request.Context(), utils.ObjectKey("avatars", file.Filename),
		file.Header.Get("Content-Type"), io.LimitReader(f, maxAvatarSize))
	if err != nil {
		log.Printf("Error uploading avatar %s: %v", file.Filename, err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	user.Avatar = location
	if err := initializers.DB.Model(&user).Update("avatar", location).Error; err != nil {
		log.Println("Avatar update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, profileResponse(user))
}
