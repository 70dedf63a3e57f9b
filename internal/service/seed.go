package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sitecms/internal/domain"
	"sitecms/internal/editor"
)

// SystemPage is a fixed marketing page that always exists.
type SystemPage struct {
	Slug        string
	Title       string
	Description string
}

// SystemPages lists the service landing pages linked from the home page.
var SystemPages = []SystemPage{
	{
		Slug:        "/consultoria",
		Title:       "Consultoría estratégica",
		Description: "Nuestra consultoría te brinda el respaldo de expertos que trabajan contigo para identificar oportunidades, optimizar procesos y diseñar estrategias a medida que garantizan resultados.",
	},
	{
		Slug:        "/ads",
		Title:       "Ad managment",
		Description: "Logra resultados reales: más ventas, leads de calidad y mayor reconocimiento de marca con campañas publicitarias diseñadas para impactar.",
	},
	{
		Slug:        "/ai-content",
		Title:       "AI Content",
		Description: "Creamos videos híbridos que combinan tomas reales e inteligencia artificial para alcanzar tus objetivos de negocio: vender, posicionar o captar leads.",
	},
	{
		Slug:        "/landing-pages-ai",
		Title:       "Landing pages con AI",
		Description: "Diseñamos landing pages optimizadas con inteligencia artificial para convertir visitas en clientes.",
	},
	{
		Slug:        "/seo-local-geo-ai",
		Title:       "SEO Local y GEO con AI",
		Description: "Optimizamos tu negocio para que aparezca primero en Google y lo conectamos con las personas correctas en la ubicación exacta donde quieres vender.",
	},
	{
		Slug:        "/achieve-apex-ai",
		Title:       "Achieve Apex.ai",
		Description: "La solución todo en uno que combina inteligencia artificial y flujos automatizados para liberar tu tiempo, optimizar recursos y convertir cada conversación en ventas.",
	},
}

// SeedSystemPages creates the missing system pages with a heading and an
// intro paragraph. Existing pages are left untouched. It returns how many
// pages were created.
func SeedSystemPages(ctx context.Context, pages domain.PageStore, content domain.ContentStore) (int, error) {
	created := 0
	for _, sp := range SystemPages {
		_, err := pages.GetPageBySlug(ctx, sp.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}
		p := &domain.Page{
			ID:           uuid.NewString(),
			Name:         sp.Title,
			Slug:         sp.Slug,
			Status:       domain.PageStatusPublished,
			IsSystemPage: true,
		}
		if err := pages.CreatePage(ctx, p); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", sp.Slug, err)
		}
		heading := editor.DefaultProps(editor.TypeHeading)
		heading.Content = sp.Title
		heading.ClassName = "text-4xl font-bold text-white text-center mb-6"
		para := editor.DefaultProps(editor.TypeParagraph)
		para.Content = sp.Description
		para.ClassName = "text-white text-lg leading-relaxed text-center max-w-3xl mx-auto"
		rows, err := editor.ToContent(p.ID, []editor.Element{
			{ID: "title", Type: editor.TypeHeading, Props: heading},
			{ID: "description", Type: editor.TypeParagraph, Props: para},
		})
		if err != nil {
			return created, err
		}
		if err := content.ReplacePageContent(ctx, p.ID, rows); err != nil {
			return created, fmt.Errorf("seed %s content: %w", sp.Slug, err)
		}
		created++
	}
	return created, nil
}
