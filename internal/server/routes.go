package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.authRegister()).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.authLogin()).Methods(http.MethodPost)

	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.Use(s.authMw)
	authAPI.HandleFunc("/logout", s.authLogout()).Methods(http.MethodPost)
	authAPI.PathPrefix("").Handler(s.notFoundHandler())

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/profile", s.userProfile()).Methods(http.MethodGet)
	userAPI.HandleFunc("/profile", s.userProfileUpdate()).Methods(http.MethodPost)
	userAPI.HandleFunc("/password", s.userPasswordUpdate()).Methods(http.MethodPost)
	userAPI.HandleFunc("/deactivate", s.userDeactivate()).Methods(http.MethodPost)
	userAPI.HandleFunc("/delete", s.userDelete()).Methods(http.MethodPost)
	userAPI.HandleFunc("/device", s.userDeviceRegister()).Methods(http.MethodPost)
	userAPI.PathPrefix("").Handler(s.notFoundHandler())

	// book browsing is public, mutations require auth
	api.HandleFunc("/books", s.bookList()).Methods(http.MethodGet)
	api.HandleFunc("/books/{bookID}", s.bookGetOne()).Methods(http.MethodGet)

	bookAPI := api.PathPrefix("/books").Subrouter()
	bookAPI.Use(s.authMw)
	bookAPI.HandleFunc("", s.bookCreate()).Methods(http.MethodPost)
	bookAPI.HandleFunc("/{bookID}/update", s.bookUpdate()).Methods(http.MethodPost)
	bookAPI.HandleFunc("/{bookID}/delete", s.bookDelete()).Methods(http.MethodPost)
	bookAPI.HandleFunc("/{bookID}/reviews", s.bookReviewAdd()).Methods(http.MethodPost)
	bookAPI.HandleFunc("/{bookID}/purchase", s.bookPurchase()).Methods(http.MethodPost)

	wishlistAPI := api.PathPrefix("/wishlist").Subrouter()
	wishlistAPI.Use(s.authMw)
	wishlistAPI.HandleFunc("", s.wishlistGet()).Methods(http.MethodGet)
	wishlistAPI.HandleFunc("/add", s.wishlistAdd()).Methods(http.MethodPost)
	wishlistAPI.HandleFunc("/remove", s.wishlistRemove()).Methods(http.MethodPost)
	wishlistAPI.HandleFunc("/alert", s.wishlistAlertUpdate()).Methods(http.MethodPost)
	wishlistAPI.PathPrefix("").Handler(s.notFoundHandler())

	cartAPI := api.PathPrefix("/cart").Subrouter()
	cartAPI.Use(s.authMw)
	cartAPI.HandleFunc("", s.cartGet()).Methods(http.MethodGet)
	cartAPI.HandleFunc("/add", s.cartAdd()).Methods(http.MethodPost)
	cartAPI.HandleFunc("/update", s.cartUpdate()).Methods(http.MethodPost)
	cartAPI.HandleFunc("/remove", s.cartRemove()).Methods(http.MethodPost)
	cartAPI.HandleFunc("/clear", s.cartClear()).Methods(http.MethodPost)
	cartAPI.PathPrefix("").Handler(s.notFoundHandler())

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw, s.adminMw)
	adminAPI.HandleFunc("/dashboard/stats", s.adminDashboardStats()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users", s.adminUserList()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users/{userID}/status", s.adminUserStatusUpdate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/books/{bookID}/status", s.adminBookStatusUpdate()).Methods(http.MethodPost)
	adminAPI.PathPrefix("").Handler(s.notFoundHandler())

	aiAPI := api.PathPrefix("/ai").Subrouter()
	aiAPI.Use(s.authMw)
	aiAPI.HandleFunc("/recommendations", s.aiRecommendations()).Methods(http.MethodGet)
	aiAPI.HandleFunc("/similar/{bookID}", s.aiSimilarBooks()).Methods(http.MethodGet)
	aiAPI.HandleFunc("/search", s.aiSearch()).Methods(http.MethodGet)
	aiAPI.HandleFunc("/search/autocomplete", s.aiAutocomplete()).Methods(http.MethodGet)
	aiAPI.HandleFunc("/chatbot/message", s.aiChatbotMessage()).Methods(http.MethodPost)
	aiAPI.PathPrefix("").Handler(s.notFoundHandler())

	uploadAPI := api.PathPrefix("/upload").Subrouter()
	uploadAPI.Use(s.authMw)
	uploadAPI.HandleFunc("/image", s.uploadImage()).Methods(http.MethodPost)
	uploadAPI.HandleFunc("/pdf", s.uploadPDF()).Methods(http.MethodPost)
	uploadAPI.PathPrefix("").Handler(s.notFoundHandler())

	return r
}
