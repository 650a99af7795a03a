// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gena-go/internal/config"
	"gena-go/internal/model"
	"gena-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 问答全文走标准分词，人设与模型按 keyword 精确过滤
	mapping := `{
		"mappings": {
			"properties": {
				"user_id": { "type": "long" },
				"user_message": { "type": "text" },
				"bot_response": { "type": "text" },
				"persona": { "type": "keyword" },
				"model": { "type": "keyword" },
				"created_at": { "type": "date" }
			}
		}
	}`

	createRes, err := ESClient.Indices.Create(indexName,
		ESClient.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))))
	if err != nil {
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("创建索引失败: %s", string(body))
	}
	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexChatTurn 将一轮问答写入索引。
// 索引失败不应阻断聊天主流程，调用方只记录日志。
func IndexChatTurn(ctx context.Context, indexName string, doc model.ChatTurnDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化问答文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("写入问答文档失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		respBody, _ := io.ReadAll(res.Body)
		return fmt.Errorf("写入问答文档返回错误: %s", string(respBody))
	}
	return nil
}

// SearchHistory 在全量历史上做全文检索，可选按用户过滤。
func SearchHistory(ctx context.Context, indexName, query string, userID *int64, size int) ([]model.ChatTurnDocument, error) {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"user_message", "bot_response"},
			},
		},
	}
	if userID != nil {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"user_id": *userID},
		})
	}

	searchBody := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
		"sort": []map[string]interface{}{
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("序列化检索请求失败: %w", err)
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("检索历史失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		respBody, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("检索历史返回错误: %s", string(respBody))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source model.ChatTurnDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	docs := make([]model.ChatTurnDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
