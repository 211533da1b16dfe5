// Package report собирает и публикует артефакты отчёта.
//
// Состав:
//   - renderer.go — подстановка плейсхолдеров, сшивка приложений,
//     запись markdown и HTML файлов
//   - html.go — строчный конвертер markdown в HTML
//   - email.go — черновик сопроводительного письма в формате .eml
package report
