package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"palsanalytix/internal/handlers"
	"palsanalytix/internal/middleware"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	webhookHandler *handlers.WebhookHandler,
	questionHandler *handlers.QuestionHandler,
	testHandler *handlers.TestHandler,
	assignHandler *handlers.AssignHandler,
) {
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	// --- Публичные маршруты ---
	router.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	router.HandleFunc("/signup/verify", authHandler.VerifySignup).Methods("POST")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")

	router.HandleFunc("/webhooks/razorpay", webhookHandler.HandleRazorpay).Methods("POST")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// --- Защищённые JWT ---
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.HandleFunc("/profile/preferences", authHandler.UpdatePreferences).Methods("PATCH")

	protected.HandleFunc("/subscription", paymentHandler.GetSubscription).Methods("GET")
	protected.HandleFunc("/subscription/status", paymentHandler.GetSubscriptionStatus).Methods("GET")
	protected.HandleFunc("/payments/order", paymentHandler.CreateOrder).Methods("POST")
	protected.HandleFunc("/payments/verify", paymentHandler.VerifyPayment).Methods("POST")

	protected.HandleFunc("/questions", questionHandler.ListQuestions).Methods("GET")
	protected.HandleFunc("/questions/assigned", questionHandler.AssignedQuestions).Methods("GET")
	protected.HandleFunc("/questions/attempt", questionHandler.Attempt).Methods("POST")
	protected.HandleFunc("/questions/by-ids", questionHandler.GetQuestionsByIDs).Methods("POST")
	protected.HandleFunc("/questions/{id:[0-9]+}", questionHandler.GetQuestion).Methods("GET")

	protected.HandleFunc("/tests", testHandler.ListTests).Methods("GET")
	protected.HandleFunc("/tests/{id:[0-9]+}", testHandler.GetTest).Methods("GET")

	// --- Только админ ---
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyAdmin)

	admin.HandleFunc("/users", authHandler.ListUsers).Methods("GET")

	admin.HandleFunc("/questions", questionHandler.CreateQuestion).Methods("POST")
	admin.HandleFunc("/questions/images", questionHandler.UploadImage).Methods("POST")
	admin.HandleFunc("/questions/{id:[0-9]+}", questionHandler.UpdateQuestion).Methods("PUT")
	admin.HandleFunc("/questions/{id:[0-9]+}", questionHandler.DeleteQuestion).Methods("DELETE")

	admin.HandleFunc("/tests", testHandler.CreateTest).Methods("POST")
	admin.HandleFunc("/tests/{id:[0-9]+}", testHandler.UpdateTest).Methods("PATCH")
	admin.HandleFunc("/tests/{id:[0-9]+}", testHandler.DeleteTest).Methods("DELETE")

	admin.HandleFunc("/assign", assignHandler.RunAssign).Methods("POST")

	admin.HandleFunc("/payments/refund", paymentHandler.Refund).Methods("POST")
	admin.HandleFunc("/payments/{paymentId}/capture", paymentHandler.Capture).Methods("POST")
	admin.HandleFunc("/payments/{paymentId}", paymentHandler.GetPayment).Methods("GET")
}
