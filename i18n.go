package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const I18N_DATE_FORMAT = DisplayDateFormat

//go:embed locales
var embeddedLocales embed.FS

var formatSpecifierRegexp = regexp.MustCompile(`{{([^}]+)}}`)

// Translation system is based on i18next, see https://www.i18next.com.
// Translation files should be compatible with i18next JS/TS libs.
// Notes (differences from https://www.i18next.com):
// - Namespaces of i18next are not supported.
// - Only JSON is supported for translations.
// - Default fallback for any `T` issue is `[locale: fall reason] key, %s` where `%s` is a comma-separated list of "%+v" of arguments.
// Supported built-in formatting functions:
// - amount (decimal.Decimal with fixed fraction digits, 'fractionDigits' property, 2 by-default),
// - date (Golang `time.Format`, default is `I18N_DATE_FORMAT`),
// - list (only 'separator' property is supported, ', ' by-default),
// - indent (rightIndent, leftIndent),
// - object (Golang `%+v`),
// - values (Golang `%v`),
// - error (error message).

// I18nFsBackend reads "locales/<lang>/translation.json" files from the file system.
type I18nFsBackend struct {
	langs []string
	FS    fs.FS
}

func (b *I18nFsBackend) GetLocales() ([]string, error) {
	if b.langs != nil {
		return b.langs, nil
	}
	entries, err := fs.ReadDir(b.FS, "locales")
	if err != nil {
		return nil, fmt.Errorf("can't read locales: %w", err)
	}
	b.langs = make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			b.langs = append(b.langs, entry.Name())
		}
	}
	return b.langs, nil
}

// LoadTranslations loads translations for all languages.
func (b *I18nFsBackend) LoadTranslations(defaultLang string) (map[string]map[string]interface{}, error) {
	locales, err := b.GetLocales()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(locales, defaultLang) {
		return nil, fmt.Errorf("default language '%s' is not in the list of languages", defaultLang)
	}
	translations := make(map[string]map[string]interface{})
	for _, locale := range locales {
		data, err := fs.ReadFile(b.FS, "locales/"+locale+"/translation.json")
		if err != nil {
			return nil, err
		}
		var translation map[string]interface{}
		if err := json.Unmarshal(data, &translation); err != nil {
			return nil, fmt.Errorf("invalid '%s' translation: %w", locale, err)
		}
		translations[locale] = translation
	}
	return translations, nil
}

// I18n is a translator based on i18next.
type I18n struct {
	backend      I18nFsBackend
	locale       string
	translations map[string]map[string]interface{}
	funcs        map[string]func(entry interface{}, props map[string]interface{}) string
	strict       bool
}

// newTranslator returns translator of embedded locales.
func newTranslator(locale string) (*I18n, error) {
	translator := &I18n{}
	if err := translator.Init(I18nFsBackend{FS: embeddedLocales}, locale, false); err != nil {
		return nil, err
	}
	return translator, nil
}

// Init initializes the translator instance with the backend and default locale.
// In strict mode missing keys are reported as errors and translation issues panic.
func (i18n *I18n) Init(backend I18nFsBackend, defaultLocale string, strict bool) error {
	i18n.backend = backend
	i18n.locale = defaultLocale
	i18n.strict = strict
	var err error
	i18n.translations, err = i18n.backend.LoadTranslations(defaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}
	if i18n.strict {
		if err := i18n.validateKeys(); err != nil {
			return err
		}
	}
	i18n.funcs = i18n.buildDefaultFormatters()
	return nil
}

// Locale returns the current locale.
func (i18n *I18n) Locale() string {
	return i18n.locale
}

// RegisterFunc registers a custom formatter function.
func (i18n *I18n) RegisterFunc(name string, function func(entry interface{}, props map[string]interface{}) string) {
	i18n.funcs[name] = function
}

func (i18n *I18n) buildDefaultFormatters() map[string]func(val interface{}, props map[string]interface{}) string {
	result := make(map[string]func(val interface{}, props map[string]interface{}) string)

	result["object"] = func(val interface{}, props map[string]interface{}) string {
		return fmt.Sprintf("%+v", val)
	}

	result["values"] = func(val interface{}, props map[string]interface{}) string {
		return fmt.Sprintf("%v", val)
	}

	result["amount"] = func(val interface{}, props map[string]interface{}) string {
		digits := int32(2)
		if fd, ok := props["fractionDigits"].(string); ok {
			if n, err := strconv.Atoi(fd); err == nil {
				digits = int32(n)
			}
		}
		switch v := val.(type) {
		case decimal.Decimal:
			return v.StringFixed(digits)
		case float64:
			return decimal.NewFromFloat(v).StringFixed(digits)
		default:
			return fmt.Sprintf("%+v", val)
		}
	}

	result["date"] = func(val interface{}, props map[string]interface{}) string {
		if val, ok := val.(time.Time); ok {
			layout := I18N_DATE_FORMAT
			if fmt, ok := props["format"].(string); ok {
				layout = fmt
			}
			return val.Format(layout)
		}
		return fmt.Sprintf("%+v", val)
	}

	result["list"] = func(value interface{}, props map[string]interface{}) string {
		var strSlice []string
		switch v := value.(type) {
		case []string:
			strSlice = v
		case []interface{}:
			strSlice = make([]string, len(v))
			for i, item := range v {
				strSlice[i] = fmt.Sprintf("%v", item)
			}
		default:
			val := reflect.ValueOf(value)
			if val.Kind() == reflect.Slice || val.Kind() == reflect.Array {
				strSlice = make([]string, val.Len())
				for i := 0; i < val.Len(); i++ {
					strSlice[i] = fmt.Sprintf("%v", val.Index(i).Interface())
				}
			} else {
				return fmt.Sprintf("%v", value)
			}
		}
		separator := ", "
		if sep, ok := props["separator"].(string); ok {
			separator = sep
		}
		return strings.Join(strSlice, separator)
	}

	result["indent"] = func(val interface{}, props map[string]interface{}) string {
		if indent, ok := props["rightIndent"].(string); ok {
			n, _ := strconv.Atoi(indent)
			return fmt.Sprintf("%-*s", n, fmt.Sprintf("%v", val))
		}
		if indent, ok := props["leftIndent"].(string); ok {
			n, _ := strconv.Atoi(indent)
			return fmt.Sprintf("%*s", n, fmt.Sprintf("%v", val))
		}
		return fmt.Sprintf("%+v", val)
	}

	result["error"] = func(val interface{}, props map[string]interface{}) string {
		if err, ok := val.(error); ok {
			return err.Error()
		}
		return fmt.Sprintf("%v", val)
	}
	return result
}

// SetLocale sets the locale for the translator.
func (i18n *I18n) SetLocale(locale string) error {
	if _, ok := i18n.translations[locale]; !ok {
		return fmt.Errorf("locale '%s' is not supported", locale)
	}
	i18n.locale = locale
	return nil
}

// WithLocale returns a copy of the translator switched to locale, or the same
// translator if locale isn't supported.
func (i18n *I18n) WithLocale(locale string) *I18n {
	if _, ok := i18n.translations[locale]; !ok || locale == i18n.locale {
		return i18n
	}
	copied := *i18n
	copied.locale = locale
	return &copied
}

// validateKeys checks that all keys exist in all translations.
func (i18n *I18n) validateKeys() error {
	keysInLocales := make(map[string][]string)
	locales := []string{}
	for locale, translations := range i18n.translations {
		for key := range translations {
			keysInLocales[key] = append(keysInLocales[key], locale)
		}
		locales = append(locales, locale)
	}
	var problems []string
	for key, existInLocales := range keysInLocales {
		if len(existInLocales) == len(locales) {
			continue
		}
		missedLocales := []string{}
		for _, locale := range locales {
			if !slices.Contains(existInLocales, locale) {
				missedLocales = append(missedLocales, locale)
			}
		}
		slices.Sort(missedLocales)
		problems = append(problems, fmt.Sprintf("key '%s' is missed in translations: '%s'", key, strings.Join(missedLocales, ", ")))
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("inconsistent translations: %s", strings.Join(problems, "; "))
	}
	return nil
}

// T translates a key with named arguments and fallback to the key and args if translation is not found.
// Named arguments are passed as `argKey, argValue` pairs after the translation key.
// Usage is: `T("n records added", "n", 3)` where translation is `"{{n}} record(s) added successfully"`.
// Formatter options are given in brackets: `{{names, list(separator: ' / ')}}`.
func (i18n *I18n) T(key string, args ...interface{}) string {
	var entry interface{}
	var ok bool
	if entry, ok = i18n.translations[i18n.locale][key]; !ok {
		return i18n.Tfallback("missed key", key, args...)
	}

	props := make(map[string]interface{})
	var argKey string
	for i, arg := range args {
		if i%2 == 0 {
			if argKey, ok = arg.(string); !ok {
				return i18n.Tfallback(fmt.Sprintf("wrong call - odd argument '%v' is not a string", arg), key, args...)
			}
		} else {
			props[argKey] = arg
		}
	}

	template, ok := entry.(string)
	if !ok {
		return i18n.Tfallback("invalid translation type", key, args...)
	}

	result := template
	for _, match := range formatSpecifierRegexp.FindAllStringSubmatch(template, -1) {
		placeholder := match[0]
		propKey, formatterSpec, hasFormatter := strings.Cut(strings.TrimSpace(match[1]), ",")
		propKey = strings.TrimSpace(propKey)
		value, exists := props[propKey]
		if !exists {
			return i18n.Tfallback(fmt.Sprintf("'%s' value is missed", propKey), key, args...)
		}
		if !hasFormatter {
			result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
			continue
		}

		formatterName, options, err := parseFormatterSpec(strings.TrimSpace(formatterSpec))
		if err != nil {
			return i18n.Tfallback(err.Error(), key, args...)
		}
		formatter := i18n.funcs[formatterName]
		if formatter == nil {
			return i18n.Tfallback(fmt.Sprintf("'%s' in translation misses '%s' formatter name", match[1], formatterName), key, args...)
		}
		result = strings.ReplaceAll(result, placeholder, formatter(value, options))
	}
	return result
}

// parseFormatterSpec parses "name" or "name(key: value, key: 'quoted, value')".
func parseFormatterSpec(spec string) (string, map[string]interface{}, error) {
	options := make(map[string]interface{})
	idx := strings.Index(spec, "(")
	if idx == -1 {
		return spec, options, nil
	}
	if !strings.HasSuffix(spec, ")") {
		return "", nil, fmt.Errorf("malformed formatter call '%s' - missing closing bracket", spec)
	}
	name := strings.TrimSpace(spec[:idx])
	for _, pair := range parseCommaSeparatedWithQuotes(spec[idx+1 : len(spec)-1]) {
		optKey, optVal, found := strings.Cut(pair, ":")
		if !found {
			return "", nil, fmt.Errorf("malformed option '%s' in '%s' formatter call", pair, name)
		}
		optVal = strings.TrimSpace(optVal)
		if len(optVal) >= 2 && (optVal[0] == '\'' || optVal[0] == '"') && optVal[len(optVal)-1] == optVal[0] {
			optVal = optVal[1 : len(optVal)-1]
		}
		options[strings.TrimSpace(optKey)] = optVal
	}
	return name, options, nil
}

// parseCommaSeparatedWithQuotes splits s by commas which are not inside quotes.
// Parts are trimmed, empty input gives empty slice.
func parseCommaSeparatedWithQuotes(s string) []string {
	parts := []string{}
	if strings.TrimSpace(s) == "" {
		return parts
	}
	var current strings.Builder
	var quote rune
	for _, char := range s {
		switch {
		case quote != 0:
			if char == quote {
				quote = 0
			}
			current.WriteRune(char)
		case char == '\'' || char == '"':
			quote = char
			current.WriteRune(char)
		case char == ',':
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	return append(parts, strings.TrimSpace(current.String()))
}

func (i18n *I18n) Tfallback(reason, key string, args ...interface{}) string {
	var argsList []string
	for _, arg := range args {
		argsList = append(argsList, fmt.Sprintf("%+v", arg))
	}
	message := fmt.Sprintf("[%s: %s] %s, %s", i18n.locale, reason, key, strings.Join(argsList, ", "))
	if i18n.strict {
		panic(message)
	}
	return message
}
