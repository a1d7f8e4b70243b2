// Package server hosts the HTTP API. Controllers from package handler are
// mounted onto a net/http ServeMux; every route gets metrics, and every
// route not marked public requires a bearer token.
package server
