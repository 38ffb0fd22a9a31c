package transport

type CreateProductRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type PatchProductRequest struct {
	Name        *string   `json:"name"`
	Price       *int64    `json:"price"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Status      *string   `json:"status"`
	Description *string   `json:"description"`
	Images      *[]string `json:"images"`
}
