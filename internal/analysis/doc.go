// Package analysis — граница интерпретации: превращает вычисленные
// карты в текст отчёта.
//
// Движку конвейера пакет предоставляет единственный интерфейс Analyzer.
// Реализации:
//   - OpenAIClient — OpenAI-совместимый chat completions endpoint
//   - LocalAnalyzer — детерминированный шаблонный аналитик,
//     работает без сети и используется в тестах
//
// Выбор реализации — FromEnv: при отсутствии OPENAI_API_KEY
// конвейер работает на LocalAnalyzer.
package analysis
