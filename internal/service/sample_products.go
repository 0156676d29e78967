package service

import "github.com/shopspring/decimal"

type sampleProduct struct {
	name             string
	shortDescription string
	price            string
	imageURL         string
	stock            int
}

var sampleCatalog = []sampleProduct{
	{"iPhone 15 Pro Max", "Latest Apple flagship smartphone with titanium design and advanced camera system", "1199.99", "https://images.unsplash.com/photo-1592750475338-74b7b21085ab?w=500", 25},
	{"Samsung Galaxy S24 Ultra", "Premium Android smartphone with S Pen and exceptional camera capabilities", "1099.99", "https://images.unsplash.com/photo-1610945265064-0e34e5519bbf?w=500", 30},
	{"MacBook Pro 14-inch", "Powerful laptop with M3 chip, perfect for professionals and creators", "1999.99", "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=500", 15},
	{"Sony WH-1000XM5 Headphones", "Industry-leading noise canceling wireless headphones", "399.99", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500", 50},
	{"iPad Air 5th Generation", "Versatile tablet with M1 chip for work and entertainment", "599.99", "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=500", 20},
	{"Apple Watch Series 9", "Advanced smartwatch with health monitoring and fitness tracking", "429.99", "https://images.unsplash.com/photo-1434493789847-2f02dc6ca35d?w=500", 35},
	{"Dell XPS 13 Laptop", "Ultra-portable laptop with stunning InfinityEdge display", "1299.99", "https://images.unsplash.com/photo-1496181133206-80ce9b88a853?w=500", 12},
	{"Nintendo Switch OLED", "Gaming console with vibrant OLED screen for home and portable gaming", "349.99", "https://images.unsplash.com/photo-1606144042614-b2417e99c4e3?w=500", 40},
	{"AirPods Pro 2nd Generation", "Premium wireless earbuds with active noise cancellation", "249.99", "https://images.unsplash.com/photo-1600294037681-c80b4cb5b434?w=500", 60},
	{"Samsung 4K Smart TV 55\"", "Crystal clear 4K display with smart TV features and streaming apps", "799.99", "https://images.unsplash.com/photo-1593359677879-a4bb92f829d1?w=500", 8},
}

func (p sampleProduct) input() CreateProductInput {
	active := true
	stock := p.stock
	return CreateProductInput{
		Name:             p.name,
		ShortDescription: p.shortDescription,
		Price:            decimal.RequireFromString(p.price),
		ImageURL:         p.imageURL,
		Stock:            &stock,
		IsActive:         &active,
	}
}
