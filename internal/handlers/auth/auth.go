package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/suresportpicks/picks-service/internal/config"
	"github.com/suresportpicks/picks-service/internal/models"
	"github.com/suresportpicks/picks-service/internal/redis"
	"github.com/suresportpicks/picks-service/internal/storage"
	"github.com/suresportpicks/picks-service/internal/utils"
)

var tokenExpiration = time.Minute * 60

type HandlerAuth struct {
	logger   *zerolog.Logger
	storage  storage.Storage
	cfg      *config.Config
	validate *validator.Validate
	session  redis.MemStorage
}

// NewAuthHandler - constructor for HandlerAuth.
func NewAuthHandler(st storage.Storage, cfg *config.Config, session redis.MemStorage, l *zerolog.Logger) *HandlerAuth {
	return &HandlerAuth{
		logger:   l,
		storage:  st,
		cfg:      cfg,
		validate: validator.New(),
		session:  session,
	}
}

func (ah *HandlerAuth) RegisterHandler(writer http.ResponseWriter, request *http.Request) {
	var req models.User
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		http.Error(writer, "Invalid request", http.StatusBadRequest)

		return
	}

	if err := ah.validate.Struct(req); err != nil {
		http.Error(writer, "Invalid input: "+err.Error(), http.StatusBadRequest)

		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(writer, "Error creating user", http.StatusInternalServerError)

		return
	}

	userID, err := ah.storage.AddUser(request.Context(), req.Login, string(hashedPassword), models.RoleUser)
	if err != nil {
		ah.logger.Error().Err(err).Msg("Error adding user")

		if utils.CheckPGConstraint(err) {
			http.Error(writer, "Username already exists", http.StatusConflict)

			return
		}

		http.Error(writer, "Error saving user", http.StatusInternalServerError)

		return
	}

	token, err := ah.generateJWT(userID, models.RoleUser)
	if err != nil {
		ah.logger.Error().Err(err).Msg("Error generating JWT")

		http.Error(writer, "Error generating token", http.StatusInternalServerError)

		return
	}

	if err := ah.storeSession(request.Context(), userID, token); err != nil {
		ah.logger.Error().Err(err).Msg("Error storing token in Redis")

		http.Error(writer, "Error storing session", http.StatusInternalServerError)

		return
	}

	ah.writeToken(writer, token)
	writer.WriteHeader(http.StatusOK)
}

func (ah *HandlerAuth) LoginHandler(writer http.ResponseWriter, request *http.Request) {
	var req models.User
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		http.Error(writer, "Invalid request", http.StatusBadRequest)

		return
	}

	if err := ah.validate.Struct(req); err != nil {
		http.Error(writer, "Invalid input: "+err.Error(), http.StatusBadRequest)

		return
	}

	login, err := ah.storage.GetUser(request.Context(), req.Login)
	if err != nil {
		http.Error(writer, "Error querying user", http.StatusInternalServerError)

		return
	}

	if login == nil {
		http.Error(writer, "Invalid username or password", http.StatusUnauthorized)

		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(login.HashedPassword), []byte(req.Password))
	if err != nil {
		http.Error(writer, "Invalid username or password", http.StatusUnauthorized)

		return
	}

	token, err := ah.generateJWT(login.UserID.String(), login.Role)
	if err != nil {
		ah.logger.Error().Err(err).Msg("Error generating token")

		http.Error(writer, "Error generating token", http.StatusInternalServerError)

		return
	}

	if err := ah.storeSession(request.Context(), login.UserID.String(), token); err != nil {
		ah.logger.Error().Err(err).Msg("Error storing token in Redis")

		http.Error(writer, "Error storing session", http.StatusInternalServerError)

		return
	}

	ah.writeToken(writer, token)
	writer.WriteHeader(http.StatusOK)
}

func (ah *HandlerAuth) generateJWT(userID string, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(tokenExpiration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(ah.cfg.JwtSecret))
}

func (ah *HandlerAuth) storeSession(ctx context.Context, userID string, token string) error {
	return ah.session.Set(ctx, token, userID, tokenExpiration)
}

func (ah *HandlerAuth) writeToken(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     "Authorization",
		Value:    token,
		Expires:  time.Now().Add(tokenExpiration),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
	})

	writer.Header().Set("Authorization", token)
}
