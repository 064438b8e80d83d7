// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the public home page.
	RouteRoot = "/"
	// RouteRegister is the registration form and submission route.
	RouteRegister = "/register"
	// RouteLogin is the login form and submission route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteItems is the public item listing.
	RouteItems = "/items"
	// RouteHealth is the health check endpoint.
	RouteHealth = "/health"

	// RouteAdmin is the admin item overview.
	RouteAdmin = "/admin"
	// RouteAdminAddItem creates an item.
	RouteAdminAddItem = "/admin/addItem"
	// RouteAdminUpdateItem updates an item by id.
	RouteAdminUpdateItem = "/admin/updateItem/{id}"
	// RouteAdminDeleteItem soft-deletes an item by id.
	RouteAdminDeleteItem = "/admin/deleteItem/{id}"
	// RouteAdminRestoreItem clears the deletion mark on an item.
	RouteAdminRestoreItem = "/admin/restoreItem/{id}"

	// RouteStocks proxies the monthly stock time series.
	RouteStocks = "/stocks"
	// RouteEarnings proxies the earnings report.
	RouteEarnings = "/earnings"
	// RouteNasa proxies the astronomy picture of the day.
	RouteNasa = "/nasa"
)

// Flash message session keys and types.
const (
	flashTypeError   = "error"
	flashTypeSuccess = "success"
	flashTypeInfo    = "info"
)
