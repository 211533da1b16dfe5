// Package astro вычисляет положения планет и аспекты между ними.
//
// Эфемериды упрощённые: средние элементы орбит с линейными скоростями
// относительно эпохи J2000 и итеративное решение уравнения Кеплера.
// Точность порядка долей градуса, чего достаточно для определения знака,
// ретроградности и мажорных аспектов.
//
// Состав:
//   - ephemeris.go — геоцентрические эклиптические долготы Солнце–Плутон
//   - zodiac.go — знаки зодиака
//   - aspects.go — поиск мажорных аспектов с орбисами
//   - chart.go — карта и её markdown-представление
//   - wheel.go — SVG-колесо карты
package astro
