// Package security проверяет подлинность входящих webhook.
//
// Проверка состоит из двух этапов: структурная проверка заголовков
// источника (hosts.go) и проверка HMAC-подписи тела (signature.go).
package security
