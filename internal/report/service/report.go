package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	catalogmodels "github.com/putridev/sparx-shop/internal/catalog/models"
	catalogrepo "github.com/putridev/sparx-shop/internal/catalog/repo"
	ordermodels "github.com/putridev/sparx-shop/internal/order/models"
	orderrepo "github.com/putridev/sparx-shop/internal/order/repo"
)

type ReportService struct {
	Orders  *orderrepo.GormRepo
	Catalog *catalogrepo.GormRepo
}

type SalesReport struct {
	From       int64               `json:"from"`
	To         int64               `json:"to"`
	OrderCount int                 `json:"order_count"`
	ItemsSold  int                 `json:"items_sold"`
	Revenue    int64               `json:"revenue"`
	Orders     []ordermodels.Order `json:"orders"`
}

// Sales aggregates completed orders created inside [from, to]. Zero
// bounds mean unbounded.
func (s *ReportService) Sales(ctx context.Context, from, to int64) (*SalesReport, error) {
	orders, err := s.Orders.ListCompleted(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{From: from, To: to, Orders: orders}
	for _, o := range orders {
		report.OrderCount++
		report.Revenue += o.Total
		for _, item := range o.Items {
			report.ItemsSold += item.Qty
		}
	}
	return report, nil
}

// SalesCSV renders the sales report as a spreadsheet-ready export.
func (s *ReportService) SalesCSV(ctx context.Context, from, to int64) ([]byte, error) {
	report, err := s.Sales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"order_id", "date", "customer", "payment_method", "items", "subtotal", "shipping", "total"}); err != nil {
		return nil, err
	}
	for _, o := range report.Orders {
		items := 0
		for _, item := range o.Items {
			items += item.Qty
		}
		row := []string{
			o.ID,
			time.UnixMilli(o.CreatedAt).Format("2006-01-02 15:04"),
			o.CustomerName,
			o.PaymentMethod,
			strconv.Itoa(items),
			strconv.FormatInt(o.Subtotal, 10),
			strconv.FormatInt(o.Shipping, 10),
			strconv.FormatInt(o.Total, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type StockReport struct {
	Threshold int                     `json:"threshold"`
	Products  []catalogmodels.Product `json:"products"`
}

// Stock lists products at or below the low-stock threshold. Inactive
// products are excluded, a retired product running out is not news.
func (s *ReportService) Stock(ctx context.Context) (*StockReport, error) {
	all, err := s.Catalog.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	report := &StockReport{
		Threshold: catalogmodels.LowStockThreshold,
		Products:  []catalogmodels.Product{},
	}
	for _, p := range all {
		if p.Status == catalogmodels.StatusInactive {
			continue
		}
		if p.Stock <= catalogmodels.LowStockThreshold {
			report.Products = append(report.Products, p)
		}
	}
	return report, nil
}

type DailyPoint struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}

type Dashboard struct {
	TotalProducts   int          `json:"total_products"`
	LowStockCount   int          `json:"low_stock_count"`
	TodayOrders     int64        `json:"today_orders"`
	PendingPayments int64        `json:"pending_payments"`
	TotalRevenue    int64        `json:"total_revenue"`
	Last7Days       []DailyPoint `json:"last_7_days"`
}

// BuildDashboard assembles the admin landing numbers.
func (s *ReportService) BuildDashboard(ctx context.Context) (*Dashboard, error) {
	return s.buildDashboard(ctx, time.Now())
}

func (s *ReportService) buildDashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	products, err := s.Catalog.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	lowStock := 0
	for _, p := range products {
		if p.Status == catalogmodels.StatusLowStock {
			lowStock++
		}
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayOrders, err := s.Orders.CountSince(ctx, startOfDay.UnixMilli())
	if err != nil {
		return nil, err
	}

	byStatus, err := s.Orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	pending := byStatus[ordermodels.StatusAwaitingUpload] + byStatus[ordermodels.StatusAwaitingVerification]

	weekStart := startOfDay.AddDate(0, 0, -6)
	completed, err := s.Orders.ListCompleted(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	var totalRevenue int64
	daily := make([]DailyPoint, 7)
	for i := range daily {
		daily[i].Date = weekStart.AddDate(0, 0, i).Format("2006-01-02")
	}
	for _, o := range completed {
		totalRevenue += o.Total
		created := time.UnixMilli(o.CreatedAt)
		if created.Before(weekStart) {
			continue
		}
		day := int(created.Sub(weekStart).Hours() / 24)
		if day < 0 || day > 6 {
			continue
		}
		daily[day].Orders++
		daily[day].Revenue += o.Total
	}

	return &Dashboard{
		TotalProducts:   len(products),
		LowStockCount:   lowStock,
		TodayOrders:     todayOrders,
		PendingPayments: pending,
		TotalRevenue:    totalRevenue,
		Last7Days:       daily,
	}, nil
}
